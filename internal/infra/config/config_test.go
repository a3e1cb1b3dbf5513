package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, "Amsterdam", cfg.Weather.Location)
	require.Equal(t, 30*time.Hour, cfg.Cache.TTL)
	require.Equal(t, "Europe/Amsterdam", cfg.Cache.Timezone)
	require.Equal(t, "06:00", cfg.Refresh.At)
	require.True(t, cfg.Refresh.Enabled)
}

func TestLoadLayersFileEnvAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
weather:
  location: Rotterdam
  timeout: 3s
cache:
  ttl: 12h
refresh:
  at: "05:30"
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WEERLIVE_API_KEY=from-dotenv\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("REFRESH_AT", "07:15")
	t.Setenv("CACHE_REDIS_ENABLED", "true")
	t.Setenv("CACHE_REDIS_ADDR", "localhost:6379")
	t.Cleanup(func() { _ = os.Unsetenv("WEERLIVE_API_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Rotterdam", cfg.Weather.Location)
	require.Equal(t, 3*time.Second, cfg.Weather.Timeout)
	require.Equal(t, 12*time.Hour, cfg.Cache.TTL)
	require.Equal(t, "07:15", cfg.Refresh.At)
	require.Equal(t, "from-dotenv", cfg.Weather.APIKey)
	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty address":        func(c *Config) { c.HTTP.Address = "" },
		"unknown timezone":     func(c *Config) { c.Cache.Timezone = "Mars/Olympus" },
		"zero ttl":             func(c *Config) { c.Cache.TTL = 0 },
		"redis without addr":   func(c *Config) { c.Cache.Redis.Enabled = true },
		"refresh without time": func(c *Config) { c.Refresh.At = "" },
		"negative history":     func(c *Config) { c.History.DefaultLimit = -1 },
		"zero rate limit":      func(c *Config) { c.HTTP.RateLimit.RequestsPerMinute = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, defaultConfig().Validate())
}
