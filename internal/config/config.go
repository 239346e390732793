// Package config handles TOML-based configuration loading, environment
// overrides, and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Domains lists the upstream hosts known to serve the catalog, first is the
// default. Upstream rotates mirrors; any of these is a valid Base.
var Domains = []string{
	"hianime.to",
	"hianime.nz",
	"hianime.sx",
	"hianime.is",
	"hianime.bz",
	"hianime.pe",
	"hianime.cx",
	"hianime.do",
	"hianimez.is",
}

// Config holds all application configuration.
type Config struct {
	Base           string `toml:"base"`             // upstream host, no scheme
	Addr           string `toml:"addr"`             // HTTP listen address
	TimeoutSeconds int    `toml:"timeout_seconds"`  // per-fetch upper bound
	CacheSeconds   int    `toml:"cache_seconds"`    // TTL for catalog results; 0 disables caching
	StreamSeconds  int    `toml:"stream_seconds"`   // TTL for resolved streams
	KeyService     string `toml:"key_service"`      // MegaCloud key endpoint, empty for default
	DecryptAPI     string `toml:"decrypt_api"`      // remote decoder, empty selects the local one
	Debug          bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Base:           Domains[0],
		Addr:           ":8080",
		TimeoutSeconds: 30,
		CacheSeconds:   300,
		StreamSeconds:  60,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "anistream"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "anistream"), nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, merges defaults, and applies environment
// overrides. A missing config file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		data, readErr := os.ReadFile(path)
		switch {
		case readErr == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(readErr):
			return nil, fmt.Errorf("reading config: %w", readErr)
		}
	}

	// .env is optional; real environment variables win either way.
	_ = godotenv.Load(".env")
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("ANISTREAM_BASE"); v != "" {
		c.Base = v
	}
	if v := os.Getenv("ANISTREAM_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("ANISTREAM_KEY_SERVICE"); v != "" {
		c.KeyService = v
	}
	if v := os.Getenv("ANISTREAM_DECRYPT_API"); v != "" {
		c.DecryptAPI = v
	}
	if os.Getenv("ANISTREAM_DEBUG") == "1" {
		c.Debug = true
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Base == "" {
		return fmt.Errorf("base host cannot be empty")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.CacheSeconds < 0 {
		return fmt.Errorf("cache_seconds cannot be negative, got %d", c.CacheSeconds)
	}
	if c.StreamSeconds < 0 {
		return fmt.Errorf("stream_seconds cannot be negative, got %d", c.StreamSeconds)
	}
	return nil
}
