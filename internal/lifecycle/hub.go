package lifecycle

import (
	"sync"

	"github.com/google/uuid"
)

// Event is a broadcast lifecycle notification.
type Event struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

const (
	// EventStatus carries a Status string.
	EventStatus = "status"
	// EventQR carries a pairing image data URL.
	EventQR = "qr"
)

// Hub fans lifecycle events out to subscribers. Slow subscribers lose
// events instead of blocking the broadcaster.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id and channel.
// The channel is closed on Unsubscribe.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. No-op for
// unknown ids.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// Broadcast delivers an event to every subscriber with room in its buffer.
func (h *Hub) Broadcast(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
