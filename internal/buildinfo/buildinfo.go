// Package buildinfo carries the version stamped in at link time.
package buildinfo

import (
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags "-X github.com/clerky/igdm/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// DisplayVersion returns Version with a "v" prefix for numeric versions.
// Unset versions fall back to the module version embedded by `go install`.
func DisplayVersion() string {
	v := strings.TrimSpace(Version)
	if v == "" || v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			if mv := strings.TrimSpace(bi.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
	}
	switch {
	case v == "" || v == "dev" || v == "(devel)":
		return "dev"
	case strings.HasPrefix(v, "v"):
		return v
	case v[0] >= '0' && v[0] <= '9':
		return "v" + v
	}
	return v
}

// Inline is the one-line form used in the UI header and `igdm version`.
func Inline() string {
	parts := []string{DisplayVersion()}
	if c := ShortCommit(); c != "" {
		parts = append(parts, c)
	}
	if d := ShortDate(); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, " · ")
}

func ShortCommit() string {
	c := strings.TrimSpace(Commit)
	if c == "" || c == "none" {
		return ""
	}
	if len(c) <= 7 {
		return c
	}
	return c[:7]
}

func ShortDate() string {
	d := strings.TrimSpace(Date)
	if d == "" || d == "unknown" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, d); err == nil {
		return t.Format("2006-01-02")
	}
	if len(d) >= 10 {
		return d[:10]
	}
	return d
}
