// Package config loads Spreado's runtime configuration: execution mode,
// credential storage location, and the timeout ceilings for bounded waits.
// Values come from an optional YAML file with environment overrides; flags
// parsed by the CLI take precedence over both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for bounded-wait ceilings. Each wait in the system has exactly
// one ceiling; failing it is terminal for that operation.
const (
	DefaultLoginTimeout      = 60 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
	DefaultActionTimeout     = 10 * time.Second
	DefaultMediaTimeout      = 120 * time.Second
)

// Config holds the runtime settings shared by auth and publish runs.
type Config struct {
	// Headless controls whether automated (non-login) sessions show a window
	Headless bool `yaml:"headless"`

	// CookieDir is the root directory for persisted credentials
	CookieDir string `yaml:"cookie_dir"`

	// LoginTimeout bounds the interactive login wait
	LoginTimeout time.Duration `yaml:"login_timeout"`

	// NavigationTimeout bounds page navigations
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`

	// ActionTimeout is the shared element-resolution budget per locator set
	ActionTimeout time.Duration `yaml:"action_timeout"`

	// MediaTimeout bounds the media-processed wait
	MediaTimeout time.Duration `yaml:"media_timeout"`

	// ProceedOnMediaTimeout keeps the pipeline going when no processed
	// signal appears before MediaTimeout. Platforms sometimes omit every
	// signal while still being ready, so this defaults to true.
	ProceedOnMediaTimeout bool `yaml:"proceed_on_media_timeout"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	return &Config{
		Headless:              true,
		CookieDir:             filepath.Join(homeDir, ".spreado", "cookies"),
		LoginTimeout:          DefaultLoginTimeout,
		NavigationTimeout:     DefaultNavigationTimeout,
		ActionTimeout:         DefaultActionTimeout,
		MediaTimeout:          DefaultMediaTimeout,
		ProceedOnMediaTimeout: true,
	}, nil
}

// DefaultPath returns the default config file location, ~/.spreado/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".spreado", "config.yaml"), nil
}

// Load builds the configuration from defaults, then the YAML file at path
// (missing file is not an error), then environment variables.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays SPREADO_* environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("SPREADO_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Headless = b
		}
	}
	if v := os.Getenv("SPREADO_COOKIE_DIR"); v != "" {
		c.CookieDir = v
	}
	if v := os.Getenv("SPREADO_LOGIN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.LoginTimeout = d
		}
	}
	if v := os.Getenv("SPREADO_NAVIGATION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.NavigationTimeout = d
		}
	}
	if v := os.Getenv("SPREADO_ACTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ActionTimeout = d
		}
	}
	if v := os.Getenv("SPREADO_MEDIA_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MediaTimeout = d
		}
	}
	if v := os.Getenv("SPREADO_PROCEED_ON_MEDIA_TIMEOUT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ProceedOnMediaTimeout = b
		}
	}
}

func (c *Config) validate() error {
	if c.CookieDir == "" {
		return fmt.Errorf("cookie_dir must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"login_timeout":      c.LoginTimeout,
		"navigation_timeout": c.NavigationTimeout,
		"action_timeout":     c.ActionTimeout,
		"media_timeout":      c.MediaTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}
