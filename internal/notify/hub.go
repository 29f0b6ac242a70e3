package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"

	"github.com/continuum-dev/continuum/internal/logging"
	"github.com/continuum-dev/continuum/internal/model"
)

// Hub holds the process-wide per-user registry of connected websockets
// (spec.md section 4.9, "Per-user registry of connected websockets").
// Fan-out is best-effort: a failing send removes the connection rather
// than blocking or retrying.
type Hub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]struct{})}
}

// Register adds a connection to userID's set. Call Unregister (typically
// deferred) when the connection's serve loop exits.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.conns[userID] = set
	}
	set[conn] = struct{}{}
}

func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}

// Publish attempts a best-effort JSON send of n to every live connection
// for n.UserID. A send failure removes that connection; it never blocks
// on a slow or dead peer beyond the write's own deadline.
func (h *Hub) Publish(ctx context.Context, n *model.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		logging.Error("notify: marshal notification", "id", n.ID, "error", err)
		return
	}

	h.mu.Lock()
	set := h.conns[n.UserID]
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, payload); err != nil {
			logging.Debug("notify: websocket write failed, dropping connection", "user_id", n.UserID, "error", err)
			h.Unregister(n.UserID, c)
		}
	}
}

// ConnectionCount reports how many live connections a user has, used by
// tests and health introspection.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}
