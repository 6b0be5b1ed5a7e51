// Package hub fans session messages out to every live consumer of a session.
package hub

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/molkiya/spectra/internal/message"
	"github.com/molkiya/spectra/pkg/logger"
)

// Consumer is one live output channel for a session (typically a socket).
type Consumer interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Stats are cumulative delivery counters.
type Stats struct {
	Delivered int64
	Pruned    int64
}

// Hub is the registry of consumers per session. Safe for concurrent use.
type Hub struct {
	mu        sync.Mutex
	consumers map[string]map[Consumer]struct{}
	logger    *logger.Logger

	delivered atomic.Int64
	pruned    atomic.Int64
}

// New creates an empty hub.
func New(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		consumers: make(map[string]map[Consumer]struct{}),
		logger:    log.Named("hub"),
	}
}

// Connect registers c for sessionID.
func (h *Hub) Connect(sessionID string, c Consumer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.consumers[sessionID]
	if !ok {
		set = make(map[Consumer]struct{})
		h.consumers[sessionID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("consumer connected", logger.F("session_id", sessionID), logger.Int("consumers", len(set)))
}

// Disconnect unregisters c. Unknown consumers are ignored.
func (h *Hub) Disconnect(sessionID string, c Consumer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sessionID, c)
}

// HasConsumers reports whether any consumer is registered for sessionID.
func (h *Hub) HasConsumers(sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.consumers[sessionID]) > 0
}

// Broadcast encodes msg once and sends it to every consumer of sessionID in
// turn. A consumer whose send fails is removed and closed; delivery to the
// rest continues.
func (h *Hub) Broadcast(ctx context.Context, sessionID string, msg message.Outbound) {
	payload, err := message.Encode(msg)
	if err != nil {
		h.logger.Error("failed to encode message", logger.F("session_id", sessionID), logger.Err(err))
		return
	}

	for _, c := range h.snapshot(sessionID) {
		if err := c.Send(ctx, payload); err != nil {
			h.logger.Warn("dropping consumer after failed send",
				logger.F("session_id", sessionID),
				logger.F("kind", string(msg.Kind())),
				logger.Err(err),
			)
			h.Disconnect(sessionID, c)
			_ = c.Close()
			h.pruned.Inc()
			continue
		}
		h.delivered.Inc()
	}
}

// CloseAll closes and unregisters every consumer of sessionID.
func (h *Hub) CloseAll(sessionID string) {
	h.mu.Lock()
	set := h.consumers[sessionID]
	delete(h.consumers, sessionID)
	h.mu.Unlock()

	for c := range set {
		_ = c.Close()
	}
}

// Stats returns the cumulative delivery counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Delivered: h.delivered.Load(),
		Pruned:    h.pruned.Load(),
	}
}

func (h *Hub) snapshot(sessionID string) []Consumer {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.consumers[sessionID]
	out := make([]Consumer, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *Hub) removeLocked(sessionID string, c Consumer) {
	set, ok := h.consumers[sessionID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.consumers, sessionID)
	}
}
