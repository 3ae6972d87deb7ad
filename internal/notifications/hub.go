package notifications

import "sync"

type registration struct {
	key  string
	sink Sink
}

// Hub tracks the live sinks of each user.
type Hub struct {
	mu    sync.RWMutex
	next  uint64
	sinks map[string]map[uint64]registration
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{sinks: make(map[string]map[uint64]registration)}
}

// Register adds sink for userID. It receives every toast of the user that
// carries no key.
func (h *Hub) Register(userID string, sink Sink) (unregister func()) {
	return h.RegisterKey(userID, "", sink)
}

// RegisterKey adds sink for userID under key. The sink also receives toasts
// carrying that key. The returned function removes it and may be called more
// than once.
func (h *Hub) RegisterKey(userID, key string, sink Sink) (unregister func()) {
	h.mu.Lock()
	h.next++
	id := h.next
	if h.sinks[userID] == nil {
		h.sinks[userID] = make(map[uint64]registration)
	}
	h.sinks[userID][id] = registration{key: key, sink: sink}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.sinks[userID], id)
			if len(h.sinks[userID]) == 0 {
				delete(h.sinks, userID)
			}
		})
	}
}

// Deliver pushes t to the sinks registered for t.UserID and returns how many
// accepted it. A toast with a key only reaches sinks registered under it.
func (h *Hub) Deliver(t Toast) int {
	h.mu.RLock()
	sinks := make([]Sink, 0, len(h.sinks[t.UserID]))
	for _, reg := range h.sinks[t.UserID] {
		if t.Key != "" && reg.key != t.Key {
			continue
		}
		sinks = append(sinks, reg.sink)
	}
	h.mu.RUnlock()

	n := 0
	for _, s := range sinks {
		if err := s.Deliver(t); err == nil {
			n++
		}
	}
	return n
}

// Count returns the number of sinks registered for userID.
func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks[userID])
}
