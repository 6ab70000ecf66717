package ws

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/rpsgame/internal/metrics"
	"github.com/mcoot/rpsgame/internal/model"
)

// Config controls the websocket endpoint
type Config struct {
	// AllowedOrigins restricts browser upgrades; empty allows every origin
	AllowedOrigins []string
	SendBuffer     int
	MaxMessageSize int64
}

// DefaultConfig returns the permissive defaults
func DefaultConfig() Config {
	return Config{
		SendBuffer:     32,
		MaxMessageSize: 4096,
	}
}

// Hub tracks open connections and delivers events to them by connection id
type Hub struct {
	config   Config
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[model.ConnectionID]*Client
	closed  bool

	// sessions counts registered connections whose disconnect has not been reported yet
	sessions sync.WaitGroup
}

// NewHub creates a new Hub
func NewHub(config Config, metrics *metrics.Metrics, logger *slog.Logger) *Hub {
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConfig().SendBuffer
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultConfig().MaxMessageSize
	}

	h := &Hub{
		config:  config,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "ws")),
		clients: make(map[model.ConnectionID]*Client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	// Non-browser clients send no Origin
	if origin == "" {
		return true
	}
	return slices.Contains(h.config.AllowedOrigins, origin)
}

// Register adds a client. It reports false once the hub is closed.
// Every successful Register must be paired with a call to release.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.sessions.Add(1)
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.metrics.Connections.Inc()
	h.logger.Info("ws client registered",
		slog.String("connection_id", string(client.id)),
		slog.Int("total_clients", clientCount))
	return true
}

// release marks a registered session as fully torn down
func (h *Hub) release() {
	h.sessions.Done()
}

// Unregister removes a client and closes its send queue
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.metrics.Connections.Dec()
	h.logger.Info("ws client unregistered",
		slog.String("connection_id", string(client.id)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// SendTo queues an event for one connection without blocking.
// Events for unknown connections, or for a client whose queue is full, are dropped.
func (h *Hub) SendTo(id model.ConnectionID, event model.EventName, payload any) {
	msg, err := Encode(event, payload)
	if err != nil {
		h.logger.Error("ws failed to encode event",
			slog.String("connection_id", string(id)),
			slog.String("event", string(event)),
			slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[id]
	if !ok {
		h.logger.Debug("ws event for unknown connection",
			slog.String("connection_id", string(id)),
			slog.String("event", string(event)))
		return
	}

	select {
	case client.send <- msg:
	default:
		h.metrics.DroppedMessages.Inc()
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("connection_id", string(id)),
			slog.String("event", string(event)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clientCount := len(h.clients)
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.mu.Unlock()

	h.metrics.Connections.Sub(float64(clientCount))
	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
}

// Drain closes the hub and waits until every session has reported its
// disconnect, or until ctx ends.
func (h *Hub) Drain(ctx context.Context) error {
	h.Close()

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		h.logger.Warn("ws hub drain timed out", slog.Any("error", ctx.Err()))
		return ctx.Err()
	}
}
