package tracker

import (
	"sync"

	"ordertrack/internal/orders"
)

// Hub fan-out entry projection ke subscriber live (SSE di httpx).
// Subscriber lambat tidak memblokir publisher: update di-drop, endpoint list
// jadi jalur catch-up.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan orders.TrackingEntry
	nextID int
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan orders.TrackingEntry)}
}

// Subscribe mengembalikan channel update + cancel func. Caller pegang
// lifecycle-nya dan wajib cancel saat sesi view selesai.
func (h *Hub) Subscribe(buf int) (<-chan orders.TrackingEntry, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan orders.TrackingEntry, buf)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (h *Hub) Publish(e orders.TrackingEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default: // subscriber penuh, drop
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
