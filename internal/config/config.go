package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/rpsgame/internal/api"
	"github.com/mcoot/rpsgame/internal/factory"
	redisstorage "github.com/mcoot/rpsgame/internal/storage/redis"
	"github.com/mcoot/rpsgame/internal/transport/ws"
)

// EnvPrefix is prepended to every flag name to form its environment variable
const EnvPrefix = "RPSGAME"

// Config holds the server settings
type Config struct {
	Host string
	Port int

	Storage       string
	RedisURL      string
	RedisPoolSize int

	LogLevel  string
	LogFormat string

	AllowedOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Default returns the settings used when nothing is configured
func Default() Config {
	server := api.DefaultServerConfig()
	redis := redisstorage.DefaultConfig()
	return Config{
		Host:            "0.0.0.0",
		Port:            server.Port,
		Storage:         factory.StorageTypeMemory,
		RedisURL:        redis.URL,
		RedisPoolSize:   redis.PoolSize,
		LogLevel:        "info",
		LogFormat:       "json",
		ReadTimeout:     server.ReadTimeout,
		WriteTimeout:    server.WriteTimeout,
		ShutdownTimeout: server.ShutdownTimeout,
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}

	switch c.Storage {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required when --storage is redis")
		}
		if _, err := url.Parse(c.RedisURL); err != nil {
			return fmt.Errorf("invalid --redis-url: %w", err)
		}
		if c.RedisPoolSize < 1 {
			return fmt.Errorf("invalid --redis-pool-size (must be at least 1): %d", c.RedisPoolSize)
		}
	default:
		return fmt.Errorf("invalid --storage %q: must be memory or redis", c.Storage)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid --log-format %q: must be json or text", c.LogFormat)
	}

	for name, d := range map[string]time.Duration{
		"--read-timeout":     c.ReadTimeout,
		"--write-timeout":    c.WriteTimeout,
		"--shutdown-timeout": c.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid %s (must be positive): %s", name, d)
		}
	}
	return nil
}

// Level parses the configured log level
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: must be debug, info, warn or error", c.LogLevel)
	}
	return level, nil
}

// NewLogger builds the process logger writing to w
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ServerConfig returns the HTTP server settings
func (c *Config) ServerConfig() api.ServerConfig {
	return api.ServerConfig{
		Host:            c.Host,
		Port:            c.Port,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}

// FactoryConfig returns the application wiring settings
func (c *Config) FactoryConfig(logger *slog.Logger) factory.Config {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: c.Storage,
		WSConfig:    ws.DefaultConfig(),
	}
	cfg.WSConfig.AllowedOrigins = c.AllowedOrigins

	if c.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.PoolSize = c.RedisPoolSize
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// NewCommand creates the server command. Every flag can also be set through
// an RPSGAME_ environment variable; an explicit flag wins.
func NewCommand(cfg *Config, version string, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "rpsgame",
		Short:   "Realtime rock-paper-scissors matchmaking server.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	defaults := Default()
	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Host, "host", "b", defaults.Host, "address to bind to (env: RPSGAME_HOST)")
	fs.IntVarP(&cfg.Port, "port", "p", defaults.Port, "port to listen on (env: RPSGAME_PORT)")
	fs.StringVar(&cfg.Storage, "storage", defaults.Storage, "state backend, memory or redis (env: RPSGAME_STORAGE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", defaults.RedisURL, "redis connection url (env: RPSGAME_REDIS_URL)")
	fs.IntVar(&cfg.RedisPoolSize, "redis-pool-size", defaults.RedisPoolSize, "redis connection pool size (env: RPSGAME_REDIS_POOL_SIZE)")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "debug, info, warn or error (env: RPSGAME_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", defaults.LogFormat, "json or text (env: RPSGAME_LOG_FORMAT)")
	fs.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", nil, "origins allowed to open websockets, empty allows all (env: RPSGAME_ALLOWED_ORIGINS)")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", defaults.ReadTimeout, "http read timeout (env: RPSGAME_READ_TIMEOUT)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", defaults.WriteTimeout, "http write timeout (env: RPSGAME_WRITE_TIMEOUT)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", defaults.ShutdownTimeout, "grace period for in-flight requests (env: RPSGAME_SHUTDOWN_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("rpsgame v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
