package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/ids"
	"github.com/mcoot/rpsgame/internal/metrics"
	"github.com/mcoot/rpsgame/internal/services/rules"
	"github.com/mcoot/rpsgame/internal/services/session"
	"github.com/mcoot/rpsgame/internal/storage"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	redisstorage "github.com/mcoot/rpsgame/internal/storage/redis"
	"github.com/mcoot/rpsgame/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   ids.Generator

	// Observability
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	// Services
	Rules       *rules.Engine
	Hub         *ws.Hub
	Coordinator *session.Coordinator
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// WSConfig controls the websocket endpoint (optional)
	WSConfig ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory' or 'redis'", storageType)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return newWithDependencies(store, clock.New(), ids.New(), registry, cfg.WSConfig, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	idgen ids.Generator,
	registry *prometheus.Registry,
	wsCfg ws.Config,
	logger *slog.Logger,
) *App {
	m := metrics.New(registry)
	engine := rules.Default()
	hub := ws.NewHub(wsCfg, m, logger)
	coordinator := session.NewCoordinator(store, engine, hub, clk, idgen, m, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		IDs:         idgen,
		Metrics:     m,
		Registry:    registry,
		Rules:       engine,
		Hub:         hub,
		Coordinator: coordinator,
	}
}

// defaultDrainTimeout bounds how long Close waits for open connections
const defaultDrainTimeout = 10 * time.Second

// Shutdown disconnects every websocket client and waits, bounded by ctx, for
// their disconnects to reach storage before closing it
func (a *App) Shutdown(ctx context.Context) error {
	drainErr := a.Hub.Drain(ctx)
	if err := a.Storage.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	if drainErr != nil {
		return fmt.Errorf("drain connections: %w", drainErr)
	}
	return nil
}

// Close is Shutdown with the default drain timeout
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultDrainTimeout)
	defer cancel()
	return a.Shutdown(ctx)
}
