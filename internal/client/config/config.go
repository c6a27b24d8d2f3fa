// Package config holds settings for the authctl command-line client.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for authctl.
type Config struct {
	ServerURL      string        `env:"AUTHCTL_SERVER_URL"`
	SessionFile    string        `env:"AUTHCTL_SESSION_FILE"`
	RequestTimeout time.Duration `env:"AUTHCTL_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults. The session file lives in
// the user's config directory when one is known.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.SessionFile = defaultSessionFile()
	c.RequestTimeout = 10 * time.Second
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".authctl-session.json"
	}
	return filepath.Join(dir, "authctl", "session.json")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
