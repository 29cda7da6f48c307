package leafletws

import "sync"

// Hub tracks the renderer bridge of each live session so the WebSocket
// endpoint can attach an incoming connection to the right one.
type Hub struct {
	mu      sync.Mutex
	bridges map[string]*Bridge
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{bridges: make(map[string]*Bridge)}
}

// Create makes a bridge for a session, replacing any previous one.
func (h *Hub) Create(sessionID string) *Bridge {
	b := NewBridge(sessionID)
	h.mu.Lock()
	h.bridges[sessionID] = b
	h.mu.Unlock()
	return b
}

// Get returns the bridge for a session.
func (h *Hub) Get(sessionID string) (*Bridge, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.bridges[sessionID]
	return b, ok
}

// Remove drops a session's bridge.
func (h *Hub) Remove(sessionID string) {
	h.mu.Lock()
	delete(h.bridges, sessionID)
	h.mu.Unlock()
}
