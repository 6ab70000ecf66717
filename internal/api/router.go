package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/rpsgame/internal/api/handler"
	"github.com/mcoot/rpsgame/internal/api/middleware"
	"github.com/mcoot/rpsgame/internal/dependencies/ids"
	"github.com/mcoot/rpsgame/internal/services/session"
	"github.com/mcoot/rpsgame/internal/transport/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *session.Coordinator
	Hub         *ws.Hub
	IDs         ids.Generator
	// Gatherer backs /metrics; nil leaves the endpoint out
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	// Create handlers
	statsHandler := handler.NewStatsHandler(cfg.Coordinator, cfg.Hub, cfg.Logger)
	realtimeHandler := handler.NewRealtimeHandler(cfg.Hub, cfg.Coordinator, cfg.IDs)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Realtime game protocol
	r.HandleFunc("/gamehub", realtimeHandler.Connect).Methods(http.MethodGet)
	r.HandleFunc("/ws", realtimeHandler.Connect).Methods(http.MethodGet)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// API subrouter
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", statsHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/stats", statsHandler.Stats).Methods(http.MethodGet)

	return r
}
