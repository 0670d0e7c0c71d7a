package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clerky/igdm/internal/configstore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"IGDM_API_URL", "IGDM_USER_ID", "IGDM_HTTP_TIMEOUT", "IGDM_POLL_INTERVAL",
		"IGDM_RETURN_ADDR", "IGDM_RETURN_ENABLED", "IGDM_LOG_FILE", "IGDM_LOG_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(Options{StorePath: filepath.Join(t.TempDir(), "none.json")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != DefaultAPIURL || cfg.APISource != SourceDefault {
		t.Fatalf("unexpected api url: %q (%s)", cfg.API.URL, cfg.APISource)
	}
	if cfg.API.UserID != 1 || cfg.API.Timeout != 30*time.Second {
		t.Fatalf("unexpected api defaults: %+v", cfg.API)
	}
	if cfg.Poll.Interval != 5*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.Poll.Interval)
	}
	if cfg.Return.Addr != "127.0.0.1:3001" || !cfg.Return.Enabled {
		t.Fatalf("unexpected return config: %+v", cfg.Return)
	}
	if !strings.HasSuffix(cfg.Log.File, "igdm.log") || cfg.Log.Level != "info" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("IGDM_API_URL", " https://dm.example.com/api ")
	t.Setenv("IGDM_USER_ID", "42")
	t.Setenv("IGDM_POLL_INTERVAL", "2s")
	t.Setenv("IGDM_RETURN_ENABLED", "false")

	cfg, err := Load(Options{StorePath: filepath.Join(t.TempDir(), "none.json")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "https://dm.example.com/api" || cfg.APISource != SourceEnv {
		t.Fatalf("unexpected api url: %q (%s)", cfg.API.URL, cfg.APISource)
	}
	if cfg.API.UserID != 42 || cfg.Poll.Interval != 2*time.Second || cfg.Return.Enabled {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_StoreUsedWhenEnvUnset(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := configstore.SaveAtomic(path, &configstore.Store{APIURL: "https://stored.example.com/api"}); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}

	cfg, err := Load(Options{StorePath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "https://stored.example.com/api" || cfg.APISource != SourceStore {
		t.Fatalf("unexpected api url: %q (%s)", cfg.API.URL, cfg.APISource)
	}

	t.Setenv("IGDM_API_URL", "http://env.example.com")
	cfg, err = Load(Options{StorePath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "http://env.example.com" {
		t.Fatalf("env should win over store, got %q", cfg.API.URL)
	}

	cfg.OverrideAPIURL("http://flag.example.com")
	if cfg.API.URL != "http://flag.example.com" || cfg.APISource != SourceFlag {
		t.Fatalf("flag should win, got %q (%s)", cfg.API.URL, cfg.APISource)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "igdm.yaml")
	body := "api:\n  url: http://yaml.example.com/api\n  user_id: 9\npoll:\n  interval: 10s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(Options{File: path, StorePath: filepath.Join(t.TempDir(), "none.json")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "http://yaml.example.com/api" || cfg.API.UserID != 9 || cfg.Poll.Interval != 10*time.Second {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Config{
		API:  API{URL: "ftp://x", UserID: 0, Timeout: time.Second},
		Poll: Poll{Interval: 0},
		Log:  Log{Level: "loud"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"api url", "user id", "poll interval", "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
