// Package configstore persists the settings `igdm config use` changes.
package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLocalAPIURL is the backend started by the companion server in dev.
const DefaultLocalAPIURL = "http://localhost:3000/api"

type Store struct {
	APIURL string `json:"apiUrl,omitempty"`
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("cannot determine user config dir")
	}
	return filepath.Join(dir, "igdm", "config.json"), nil
}

func Load(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("missing path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st Store
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	st.APIURL = strings.TrimSpace(st.APIURL)
	return &st, nil
}

// LoadOrEmpty is Load, except that a missing file yields an empty Store.
func LoadOrEmpty(path string) (*Store, error) {
	st, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Store{}, nil
	}
	return st, err
}

func SaveAtomic(path string, st *Store) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("missing path")
	}
	if st == nil {
		return errors.New("missing store")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out := Store{APIURL: strings.TrimSpace(st.APIURL)}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ResolveAPIURL turns the argument of `config use` into a base URL. "local"
// names the dev backend; anything else must be an absolute http(s) URL.
func ResolveAPIURL(v string) (string, error) {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "local") {
		return DefaultLocalAPIURL, nil
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid api url %q (expected local or an http(s) url)", v)
	}
	return strings.TrimRight(v, "/"), nil
}
