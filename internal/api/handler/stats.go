package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/services/session"
)

// StatsSource reports pool and registry sizes
type StatsSource interface {
	Stats(ctx context.Context) (session.Stats, error)
}

// ConnectionCounter reports open realtime connections
type ConnectionCounter interface {
	ClientCount() int
}

// StatsHandler serves health and load endpoints
type StatsHandler struct {
	stats       StatsSource
	connections ConnectionCounter
	logger      *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats StatsSource, connections ConnectionCounter, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats:       stats,
		connections: connections,
		logger:      logger,
	}
}

// Health handles GET /api/v1/health
func (h *StatsHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// Stats handles GET /api/v1/stats
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to read stats", slog.Any("error", err))
		WriteError(w, apierr.NewUnavailableError())
		return
	}

	response.JSON(w, http.StatusOK, response.Stats{
		Waiting:       stats.Waiting,
		ActiveMatches: stats.ActiveMatches,
		Connections:   h.connections.ClientCount(),
	})
}
