// Package live keeps one push channel per connected user.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/notify"
)

// ErrSlowPeer is returned when a peer's send buffer is full
var ErrSlowPeer = errors.New("peer send buffer full")

// Peer is one open connection of a user
type Peer interface {
	// Send queues payload without blocking and reports whether it was accepted
	Send(payload []byte) bool
	// Close terminates the connection. Safe to call more than once.
	Close()
}

// Hub maps users to their current peer. A user has at most one peer; a new
// connection replaces and closes the previous one.
type Hub struct {
	mu      sync.RWMutex
	peers   map[int64]Peer
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewHub creates an empty Hub
func NewHub(m *metrics.Metrics, logger *logrus.Logger) *Hub {
	return &Hub{
		peers:   make(map[int64]Peer),
		metrics: m,
		logger:  logger,
	}
}

// Register makes p the peer of userID, closing any previous peer
func (h *Hub) Register(userID int64, p Peer) {
	h.mu.Lock()
	prev := h.peers[userID]
	h.peers[userID] = p
	n := len(h.peers)
	h.mu.Unlock()

	h.metrics.LiveConnections.Set(float64(n))
	if prev != nil && prev != p {
		prev.Close()
		h.logger.WithField("user_id", userID).Debug("Replaced live connection")
	}
}

// Unregister removes p if it is still the peer of userID. A stale peer
// unregistering after being replaced leaves the newer one in place.
func (h *Hub) Unregister(userID int64, p Peer) bool {
	h.mu.Lock()
	cur, ok := h.peers[userID]
	removed := ok && cur == p
	if removed {
		delete(h.peers, userID)
	}
	n := len(h.peers)
	h.mu.Unlock()

	h.metrics.LiveConnections.Set(float64(n))
	return removed
}

// Send pushes a raw payload to userID
func (h *Hub) Send(userID int64, payload []byte) error {
	h.mu.RLock()
	p, ok := h.peers[userID]
	h.mu.RUnlock()

	if !ok {
		return notify.ErrUnreachable
	}
	if !p.Send(payload) {
		return ErrSlowPeer
	}
	return nil
}

// Deliver pushes the notification of env as JSON to its recipient
func (h *Hub) Deliver(_ context.Context, env notify.Envelope) error {
	payload, err := json.Marshal(env.Message)
	if err != nil {
		return fmt.Errorf("failed to encode push: %w", err)
	}
	return h.Send(env.RecipientID, payload)
}

// IsConnected reports whether userID has a peer
func (h *Hub) IsConnected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.peers[userID]
	return ok
}

// Connected returns the number of users with a peer
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// CloseAll closes and forgets every peer
func (h *Hub) CloseAll() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[int64]Peer)
	h.mu.Unlock()

	for _, p := range peers {
		p.Close()
	}
	h.metrics.LiveConnections.Set(0)
}
