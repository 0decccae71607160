// Package config loads the healthpick yaml configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/healthpick/healthpick/internal/cascade"
	"github.com/healthpick/healthpick/internal/fallback"
	"github.com/healthpick/healthpick/internal/nutrition"
	"github.com/healthpick/healthpick/internal/oracle"
	"github.com/healthpick/healthpick/internal/prefs"
	"github.com/healthpick/healthpick/internal/vitals"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Prefs     prefs.Prefs       `yaml:"prefs"`
	Store     prefs.StoreConfig `yaml:"store"`
	Vitals    vitals.FeedConfig `yaml:"vitals"`
	Oracle    oracle.Config     `yaml:"oracle"`
	Fallback  fallback.Config   `yaml:"fallback"`
	Cascade   cascade.Config    `yaml:"cascade"`
	Nutrition nutrition.Config  `yaml:"nutrition"`
	Redis     RedisConfig       `yaml:"redis"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// CatalogConfig locates the candidate pool sources.
type CatalogConfig struct {
	Path         string `yaml:"path"`
	PartnersPath string `yaml:"partners_path"`
}

// RedisConfig enables the redis-backed nutrition cache. With an empty addr
// the in-process cache is used instead.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// Default returns the demo configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Catalog: CatalogConfig{
			Path:         "data/food_catalog.json",
			PartnersPath: "data/partner_menus.json",
		},
		Store:     prefs.DefaultStoreConfig(),
		Vitals:    vitals.DefaultFeedConfig(),
		Oracle:    oracle.DefaultConfig(),
		Fallback:  fallback.DefaultConfig(),
		Cascade:   cascade.DefaultConfig(),
		Nutrition: nutrition.DefaultConfig(),
	}
}

// Load reads a yaml config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks invariants the rest of the system assumes.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Cascade.MinPicks <= 0 {
		return fmt.Errorf("cascade min_picks must be positive, got %d", c.Cascade.MinPicks)
	}
	if c.Cascade.MaxReturned < c.Cascade.MinPicks {
		return fmt.Errorf("cascade max_returned %d below min_picks %d", c.Cascade.MaxReturned, c.Cascade.MinPicks)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive")
	}
	switch c.Prefs.Diet {
	case "", "veg", "nonveg":
	default:
		return fmt.Errorf("prefs diet %q invalid, want veg or nonveg", c.Prefs.Diet)
	}
	return nil
}
