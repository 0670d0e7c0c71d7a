package view

import (
	"net/url"
	"strings"
)

// ReturnKind classifies the query the OAuth flow lands on.
type ReturnKind int

const (
	ReturnNone ReturnKind = iota
	ReturnConnected
	ReturnFailed
)

// ReturnSignal is the outcome carried back by the provider redirect.
type ReturnSignal struct {
	Kind    ReturnKind
	Message string
}

// NoticeKind selects the notice styling.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeFailure
)

// Notice is a one-shot, dismissible message for the user.
type Notice struct {
	Kind NoticeKind
	Text string
}

// ParseReturn recognises connected=success and error=<message>. Success wins
// when both are present.
func ParseReturn(q url.Values) ReturnSignal {
	if q.Get("connected") == "success" {
		return ReturnSignal{Kind: ReturnConnected}
	}
	if msg := q.Get("error"); msg != "" {
		return ReturnSignal{Kind: ReturnFailed, Message: msg}
	}
	return ReturnSignal{Kind: ReturnNone}
}

// ParseReturnURL parses the query of a full URL. Unparseable input is
// treated as carrying no signal.
func ParseReturnURL(raw string) ReturnSignal {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ReturnSignal{}
	}
	return ParseReturn(u.Query())
}

// Notice renders the signal for the user. ok is false for ReturnNone.
func (r ReturnSignal) Notice() (Notice, bool) {
	switch r.Kind {
	case ReturnConnected:
		return Notice{Kind: NoticeSuccess, Text: "Account connected successfully!"}, true
	case ReturnFailed:
		return Notice{Kind: NoticeFailure, Text: "Failed to connect account: " + r.Message}, true
	default:
		return Notice{}, false
	}
}

// StripQuery drops the query and fragment so a signal cannot be replayed.
func StripQuery(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "/"
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
