package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/molkiya/spectra/internal/hub"
	"github.com/molkiya/spectra/internal/message"
	"github.com/molkiya/spectra/pkg/logger"
)

const (
	writeTimeout  = 5 * time.Second
	maxFrameBytes = 64 << 10
)

// wsConsumer delivers frames to one socket. Writes are serialized because
// broadcasts for different messages may overlap.
type wsConsumer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ hub.Consumer = (*wsConsumer)(nil)

func (c *wsConsumer) Send(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return websocket.Message.Send(c.conn, string(payload))
}

func (c *wsConsumer) Close() error {
	return c.conn.Close()
}

// SessionSocket upgrades to a WebSocket bound to one existing session. The
// socket receives every broadcast for the session and feeds inbound frames to
// the orchestrator one at a time.
func (h *Handler) SessionSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := h.orch.GetState(r.Context(), sessionID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	server := websocket.Server{
		Handshake: h.checkOrigin,
		Handler: func(conn *websocket.Conn) {
			h.serveSocket(conn, sessionID)
		},
	}
	server.ServeHTTP(w, r)
}

func (h *Handler) checkOrigin(_ *websocket.Config, r *http.Request) error {
	if len(h.opts.AllowedOrigins) == 0 {
		return nil
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return nil
		}
	}
	h.logger.Warn("Rejected socket origin", logger.F("origin", origin))
	return fmt.Errorf("origin %q not allowed", origin)
}

func (h *Handler) serveSocket(conn *websocket.Conn, sessionID string) {
	conn.MaxPayloadBytes = maxFrameBytes
	log := h.logger.With(logger.F("session_id", sessionID))

	consumer := &wsConsumer{conn: conn}
	h.hub.Connect(sessionID, consumer)
	defer func() {
		h.hub.Disconnect(sessionID, consumer)
		_ = conn.Close()
		log.Info("Consumer disconnected")
	}()
	log.Info("Consumer connected")

	ctx := conn.Request().Context()
	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				log.Warn("Dropping oversized frame")
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Debug("Socket read ended", logger.Err(err))
			}
			return
		}

		msg, err := message.DecodeInbound(raw)
		if err != nil {
			log.Warn("Dropping malformed frame", logger.Err(err))
			continue
		}

		switch m := msg.(type) {
		case message.SensorData:
			h.orch.HandleSensorSignal(ctx, sessionID, m.Signal)
		case message.PlayerSpeech:
			h.orch.HandlePlayerInput(ctx, sessionID, m.Text)
		}
	}
}
