package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "healthpick.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Cascade.MinPicks)
	assert.Equal(t, 12, cfg.Cascade.MaxReturned)
	assert.Equal(t, 8*time.Second, cfg.Oracle.Timeout)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
prefs:
  diet: veg
  city: Pune
oracle:
  timeout: 4s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "veg", cfg.Prefs.Diet)
	assert.Equal(t, 4*time.Second, cfg.Oracle.Timeout)
	// Untouched sections keep their defaults.
	assert.Equal(t, "data/food_catalog.json", cfg.Catalog.Path)
	assert.Equal(t, 5, cfg.Cascade.MinPicks)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"min_picks zero", func(c *Config) { c.Cascade.MinPicks = 0 }},
		{"max below min", func(c *Config) { c.Cascade.MaxReturned = 2 }},
		{"oracle timeout", func(c *Config) { c.Oracle.Timeout = 0 }},
		{"bad diet", func(c *Config) { c.Prefs.Diet = "pescatarian" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
