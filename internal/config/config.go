// Package config loads the site configuration from an optional YAML file,
// with environment overrides for secrets and deployment settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultQuotaBytes caps each persisted record list at 5 MiB, mirroring the
// storage budget a browser grants a single origin.
const DefaultQuotaBytes = 5 << 20

// Config represents the contents of site.yaml.
type Config struct {
	SiteName    string `yaml:"site_name"`
	Addr        string `yaml:"addr"`
	DBPath      string `yaml:"db_path"`
	QuotaBytes  int    `yaml:"quota_bytes"`
	ContentPath string `yaml:"content_path"`
	ContactTo   string `yaml:"contact_to"`

	// Set from environment, never from the file.
	Env       string `yaml:"-"`
	ResendKey string `yaml:"-"`
	CSRFKey   string `yaml:"-"`
}

// Load reads the config file at path. A missing file is not an error; the
// defaults are returned. Environment variables CURAPHARM_ENV,
// CURAPHARM_RESEND_KEY and CURAPHARM_CSRF_KEY override in all cases.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.Env = envOrDefault("CURAPHARM_ENV", "development")
	cfg.ResendKey = os.Getenv("CURAPHARM_RESEND_KEY")
	cfg.CSRFKey = os.Getenv("CURAPHARM_CSRF_KEY")
	if addr := os.Getenv("CURAPHARM_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	return cfg, nil
}

// IsProduction reports whether the site runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func defaultConfig() *Config {
	return &Config{
		SiteName:    "CuraPharm",
		Addr:        ":8080",
		DBPath:      "curapharm.db",
		QuotaBytes:  DefaultQuotaBytes,
		ContentPath: "content/home.md",
		ContactTo:   "info@curapharm.example",
	}
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	d := defaultConfig()
	if c.SiteName == "" {
		c.SiteName = d.SiteName
	}
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.QuotaBytes <= 0 {
		c.QuotaBytes = d.QuotaBytes
	}
	if c.ContentPath == "" {
		c.ContentPath = d.ContentPath
	}
	if c.ContactTo == "" {
		c.ContactTo = d.ContactTo
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
