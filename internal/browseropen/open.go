// Package browseropen hands the Instagram connect URL to the user's browser.
package browseropen

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Opener launches a browser. The zero value is not usable; see Default.
type Opener struct {
	GOOS       string
	WSL        bool
	BrowserEnv string
	Start      func(name string, args ...string) error
}

// Default describes the running system.
func Default() Opener {
	goos := runtime.GOOS
	return Opener{
		GOOS:       goos,
		WSL:        goos == "linux" && isWSL(),
		BrowserEnv: strings.TrimSpace(os.Getenv("BROWSER")),
		Start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Open opens u with the system's browser.
func Open(u string) error {
	return Default().Open(u)
}

// Open tries each launcher for the platform in turn and stops at the first
// that starts.
func (o Opener) Open(raw string) error {
	u, err := checkURL(raw)
	if err != nil {
		return err
	}
	if o.Start == nil {
		return errors.New("no launcher configured")
	}

	var errs []error
	for _, argv := range o.candidates(u) {
		if err := o.Start(argv[0], argv[1:]...); err == nil {
			return nil
		} else {
			errs = append(errs, err)
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("open browser failed: %w", errors.Join(errs...))
}

func (o Opener) candidates(u string) [][]string {
	switch o.GOOS {
	case "darwin":
		return [][]string{{"open", u}}
	case "windows":
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", u},
			{"cmd", "/c", "start", "", u},
			{"powershell", "-NoProfile", "-Command", "Start-Process", u},
		}
	}

	var out [][]string
	if o.GOOS == "linux" && o.WSL {
		out = append(out,
			[]string{"wslview", u},
			[]string{"cmd.exe", "/c", "start", "", u},
		)
	}
	out = append(out, browserEnvCommands(o.BrowserEnv, u)...)
	return append(out, []string{"xdg-open", u})
}

// browserEnvCommands follows the BROWSER convention: a colon-separated list
// of commands, each either taking the URL as last argument or naming it with
// %s.
func browserEnvCommands(raw, u string) [][]string {
	var out [][]string
	for _, part := range strings.Split(strings.TrimSpace(raw), ":") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var argv []string
		if strings.Contains(part, "%s") {
			argv = strings.Fields(strings.ReplaceAll(part, "%s", u))
		} else {
			argv = append(strings.Fields(part), u)
		}
		if len(argv) > 0 {
			out = append(out, argv)
		}
	}
	return out
}

func checkURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("missing url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("refusing to open %q: not an http(s) url", raw)
	}
	return raw, nil
}

func isWSL() bool {
	if os.Getenv("WSL_INTEROP") != "" || os.Getenv("WSL_DISTRO_NAME") != "" {
		return true
	}
	b, err := os.ReadFile("/proc/sys/kernel/osrelease")
	return err == nil && strings.Contains(strings.ToLower(string(b)), "microsoft")
}
