package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsgame/internal/factory"
)

// execute runs the command with args and returns the config it would serve with
func execute(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	cfg := &Config{}
	var got *Config
	cmd := NewCommand(cfg, "test", func(_ *cobra.Command, c *Config) error {
		got = c
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	require.NotNil(t, got)
	return got, nil
}

func TestDefaults(t *testing.T) {
	cfg, err := execute(t)
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
}

func TestFlags(t *testing.T) {
	cfg, err := execute(t,
		"--port", "9000",
		"--storage", "redis",
		"--redis-url", "redis://cache:6379/1",
		"--log-level", "debug",
		"--allowed-origins", "https://a.example,https://b.example",
		"--shutdown-timeout", "5s",
	)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, factory.StorageTypeRedis, cfg.Storage)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("RPSGAME_PORT", "7070")
	t.Setenv("RPSGAME_LOG_FORMAT", "text")
	t.Setenv("RPSGAME_REDIS_POOL_SIZE", "25")

	cfg, err := execute(t)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 25, cfg.RedisPoolSize)
}

func TestFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("RPSGAME_PORT", "7070")

	cfg, err := execute(t, "--port", "7171")
	require.NoError(t, err)

	assert.Equal(t, 7171, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"port too low", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"port too high", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"unknown storage", func(c *Config) { c.Storage = "etcd" }, "--storage"},
		{"redis without url", func(c *Config) { c.Storage = "redis"; c.RedisURL = "" }, "--redis-url"},
		{"redis pool empty", func(c *Config) { c.Storage = "redis"; c.RedisPoolSize = 0 }, "--redis-pool-size"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "--log-level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "--log-format"},
		{"zero timeout", func(c *Config) { c.ReadTimeout = 0 }, "--read-timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := Default()
		assert.NoError(t, cfg.Validate())
	})
}

func TestInvalidFlagStopsCommand(t *testing.T) {
	_, err := execute(t, "--storage", "etcd")
	assert.ErrorContains(t, err, "--storage")
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestFactoryConfig(t *testing.T) {
	cfg := Default()
	cfg.Storage = factory.StorageTypeRedis
	cfg.RedisURL = "redis://cache:6379"
	cfg.RedisPoolSize = 4
	cfg.AllowedOrigins = []string{"https://play.example"}

	fc := cfg.FactoryConfig(slog.Default())

	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379", fc.RedisConfig.URL)
	assert.Equal(t, 4, fc.RedisConfig.PoolSize)
	assert.Equal(t, []string{"https://play.example"}, fc.WSConfig.AllowedOrigins)
	assert.Equal(t, cfg.Port, cfg.ServerConfig().Port)
}
