package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/rpsgame/internal/dependencies/ids"
	"github.com/mcoot/rpsgame/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed between pongs before the peer is considered gone
	pongWait = 60 * time.Second

	// Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket connection
type Client struct {
	id          model.ConnectionID
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
	logger      *slog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, id model.ConnectionID) *Client {
	return &Client{
		id:          id,
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, hub.config.SendBuffer),
		connectedAt: time.Now(),
		logger:      hub.logger.With(slog.String("connection_id", string(id))),
	}
}

// ID returns the connection id assigned on upgrade
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// ServeWS upgrades the request and pumps events between the connection and
// handler until the peer goes away, then reports the disconnect
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, handler EventHandler, idgen ids.Generator) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		hub.logger.Warn("ws upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.Any("error", err))
		return
	}

	client := newClient(hub, conn, idgen.ConnectionID())
	if !hub.Register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	defer hub.release()

	ctx := context.WithoutCancel(r.Context())

	go client.writeLoop()
	client.readLoop(ctx, handler)

	if err := handler.Disconnect(ctx, client.id); err != nil {
		client.logger.Error("ws disconnect failed", slog.Any("error", err))
	}
	hub.Unregister(client)
}

func (c *Client) readLoop(ctx context.Context, handler EventHandler) {
	defer func() {
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws unexpected close", slog.Any("error", err))
			}
			return
		}

		if err := dispatch(ctx, handler, c.id, frame); err != nil {
			c.reportError(err)
		}
	}
}

// reportError tells the peer why its frame was rejected
func (c *Client) reportError(err error) {
	if pe, ok := asProtocolError(err); ok {
		c.logger.Debug("ws frame rejected", slog.String("code", pe.code))
		c.hub.SendTo(c.id, model.EventError, model.ErrorPayload{Code: pe.code, Message: pe.message})
		return
	}
	// Already reported to the submitter
	if errors.Is(err, model.ErrInvalidChoice) {
		return
	}
	c.logger.Error("ws event failed", slog.Any("error", err))
	c.hub.SendTo(c.id, model.EventError, model.ErrorPayload{
		Code:    model.CodeInternalError,
		Message: "internal server error",
	})
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("ws write failed", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
