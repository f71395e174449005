package events

import "sync"

// Hub fans events out to SSE subscribers. Slow subscribers miss events
// instead of blocking publishers.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

func (h *Hub) Subscribe() chan string {
	ch := make(chan string, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	_, ok := h.clients[ch]
	delete(h.clients, ch)
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (h *Hub) Publish(evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

// Emit builds a v1 envelope and publishes it.
func (h *Hub) Emit(reqID, typ string, data any) {
	if h == nil {
		return
	}
	h.Publish(MakeEvent(reqID, typ, 1, data))
}

// Subscribers reports how many clients are connected.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
