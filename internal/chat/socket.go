// AngelaMos | 2026
// socket.go

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ltl-studio/backend/internal/config"
	"github.com/ltl-studio/backend/internal/core"
)

const sendTimeout = 10 * time.Second

type SocketHandler struct {
	service  *Service
	upgrader websocket.Upgrader
	cfg      config.ChatConfig
	logger   *slog.Logger
}

func NewSocketHandler(
	service *Service,
	cfg config.ChatConfig,
	logger *slog.Logger,
) *SocketHandler {
	h := &SocketHandler{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

func (h *SocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}

// ServeHTTP upgrades the request and runs the connection until either
// side hangs up. ?email= and ?role=admin pick the initial subscriptions.
func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn, h.cfg, h.logger)
	hub := h.service.Hub()

	var topics []string
	if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
		topics = append(topics, ParticipantTopic(email))
	}
	if r.URL.Query().Get("role") == AdminIdentity {
		topics = append(topics, ParticipantTopic(AdminIdentity))
	}
	hub.Subscribe(c, topics...)

	h.logger.Debug("chat socket connected",
		"remote_addr", r.RemoteAddr,
		"topics", topics,
	)

	go c.writePump()
	h.readPump(c)

	hub.Remove(c)
	c.Close()

	h.logger.Debug("chat socket disconnected", "remote_addr", r.RemoteAddr)
}

// readPump handles frames strictly in arrival order.
func (h *SocketHandler) readPump(c *client) {
	c.conn.SetReadLimit(h.cfg.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				h.logger.Debug("chat socket read failed", "error", err)
			}
			return
		}

		select {
		case <-c.done:
			return
		default:
		}

		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError("malformed frame")
			continue
		}

		h.handleFrame(c, frame)
	}
}

func (h *SocketHandler) handleFrame(c *client, frame InboundFrame) {
	hub := h.service.Hub()

	switch frame.Type {
	case "", FrameMessage:
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if _, err := h.service.SendFrom(ctx, frame.SendRequest(), c); err != nil {
			c.sendError(frameError(err))
			if !errors.Is(err, core.ErrInvalidInput) && !errors.Is(err, core.ErrNotFound) {
				h.logger.Error("chat send failed", "error", err)
			}
		}

	case FrameSubscribe, FrameUnsubscribe:
		topic := frameTopic(frame)
		if topic == "" {
			c.sendError("conversationId or userEmail is required")
			return
		}
		if frame.Type == FrameSubscribe {
			hub.Subscribe(c, topic)
		} else {
			hub.Unsubscribe(c, topic)
		}

	default:
		c.sendError("unknown frame type")
	}
}

func frameTopic(frame InboundFrame) string {
	switch {
	case frame.ConversationID != "":
		return ConversationTopic(strings.TrimSpace(frame.ConversationID))
	case frame.UserEmail != "":
		return ParticipantTopic(frame.UserEmail)
	default:
		return ""
	}
}

func frameError(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "Conversation not found."
	case errors.Is(err, core.ErrInvalidInput):
		return strings.TrimPrefix(err.Error(), core.ErrInvalidInput.Error()+": ")
	default:
		return "Message could not be sent."
	}
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	cfg    config.ChatConfig
	logger *slog.Logger
}

func newClient(conn *websocket.Conn, cfg config.ChatConfig, logger *slog.Logger) *client {
	return &client{
		conn:   conn,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger,
	}
}

// Deliver queues payload without blocking. A full buffer reports false.
func (c *client) Deliver(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *client) sendError(msg string) {
	payload, err := json.Marshal(ErrorFrame{Type: "error", Error: msg})
	if err != nil {
		return
	}
	c.Deliver(payload)
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteTimeout),
			)
			return

		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("chat socket write failed", "error", err)
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
