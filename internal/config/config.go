package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/clerky/igdm/internal/configstore"
)

// DefaultAPIURL is used when neither env, file nor the config store name one.
const DefaultAPIURL = configstore.DefaultLocalAPIURL

// Where the API URL came from, reported by `igdm config show`.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceStore   = "config store"
	SourceFlag    = "flag"
)

// Config holds all application configuration
type Config struct {
	API    API    `yaml:"api"`
	Poll   Poll   `yaml:"poll"`
	Return Return `yaml:"return"`
	Log    Log    `yaml:"log"`

	// APISource records which layer supplied API.URL.
	APISource string `yaml:"-"`
}

// API holds backend configuration
type API struct {
	URL     string        `yaml:"url" env:"IGDM_API_URL"`
	UserID  int64         `yaml:"user_id" env:"IGDM_USER_ID" env-default:"1"`
	Timeout time.Duration `yaml:"timeout" env:"IGDM_HTTP_TIMEOUT" env-default:"30s"`
}

type Poll struct {
	Interval time.Duration `yaml:"interval" env:"IGDM_POLL_INTERVAL" env-default:"5s"`
}

// Return configures the loopback listener the connect flow lands on.
type Return struct {
	Addr    string `yaml:"addr" env:"IGDM_RETURN_ADDR" env-default:"127.0.0.1:3001"`
	Enabled bool   `yaml:"enabled" env:"IGDM_RETURN_ENABLED" env-default:"true"`
}

type Log struct {
	File  string `yaml:"file" env:"IGDM_LOG_FILE"`
	Level string `yaml:"level" env:"IGDM_LOG_LEVEL" env-default:"info"`
}

// Options select the sources Load reads.
type Options struct {
	// File is an optional YAML file; env still overrides it.
	File string
	// StorePath is the config store consulted for the API URL. Empty means
	// configstore.DefaultPath().
	StorePath string
	// DotEnv loads ./.env first when set. Existing variables win.
	DotEnv bool
}

// Load reads configuration from env (and an optional YAML file), then fills
// the API URL from the config store when nothing else set it.
func Load(opts Options) (Config, error) {
	if opts.DotEnv {
		_ = godotenv.Load()
	}

	var cfg Config
	var err error
	if strings.TrimSpace(opts.File) != "" {
		err = cleanenv.ReadConfig(opts.File, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	cfg.API.URL = strings.TrimSpace(cfg.API.URL)
	switch {
	case cfg.API.URL != "":
		cfg.APISource = SourceEnv
	default:
		cfg.API.URL, cfg.APISource = DefaultAPIURL, SourceDefault
		if st := loadStore(opts.StorePath); st != nil && st.APIURL != "" {
			cfg.API.URL, cfg.APISource = st.APIURL, SourceStore
		}
	}

	if strings.TrimSpace(cfg.Log.File) == "" {
		cfg.Log.File = filepath.Join(os.TempDir(), "igdm.log")
	}
	return cfg, nil
}

func loadStore(path string) *configstore.Store {
	if strings.TrimSpace(path) == "" {
		p, err := configstore.DefaultPath()
		if err != nil {
			return nil
		}
		path = p
	}
	st, err := configstore.LoadOrEmpty(path)
	if err != nil {
		return nil
	}
	return st
}

// OverrideAPIURL applies a command-line flag.
func (c *Config) OverrideAPIURL(v string) {
	if v = strings.TrimSpace(v); v != "" {
		c.API.URL = v
		c.APISource = SourceFlag
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api url %q must be an absolute http(s) url", c.API.URL))
	}
	if c.API.UserID <= 0 {
		errs = append(errs, fmt.Errorf("user id must be positive, got %d", c.API.UserID))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http timeout must be positive, got %s", c.API.Timeout))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.Poll.Interval))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
