package tui

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

func copyToClipboard(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("nothing to copy")
	}
	if clipboard.Unsupported {
		return errors.New("no clipboard tool found (install xclip, xsel or wl-clipboard)")
	}
	return clipboard.WriteAll(text)
}
