package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/api"
	"github.com/mcoot/rpsgame/internal/config"
	"github.com/mcoot/rpsgame/internal/factory"
)

const releaseVersion = "0.1.0"

func main() {
	cfg := &config.Config{}
	if err := config.NewCommand(cfg, releaseVersion, serve).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(cfg.FactoryConfig(logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		// Runs after the HTTP server has stopped, so only websocket sessions remain
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(ctx); err != nil {
			logger.Warn("app shutdown error", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Coordinator: app.Coordinator,
		Hub:         app.Hub,
		IDs:         app.IDs,
		Gatherer:    app.Registry,
	})

	server := api.NewServer(router, cfg.ServerConfig(), logger)
	// Shutdown does not close hijacked websocket connections
	server.OnShutdown(app.Hub.Close)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Listen(); err != nil {
		return err
	}
	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
		slog.String("version", releaseVersion),
	)

	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}
