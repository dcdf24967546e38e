// Package realtime pushes cache invalidation notices to connected clients
// over WebSocket.
package realtime

import (
	"sync"

	"github.com/edvin/unihub/internal/metrics"
)

// Notice tells a client which cached queries are stale.
type Notice struct {
	Type string   `json:"type"`
	Keys []string `json:"keys"`
}

const noticeInvalidate = "invalidate"

// subscriberBuffer bounds how many notices may queue for a slow client
// before further notices to it are dropped.
const subscriberBuffer = 32

// Subscription receives notices for one user until Close is called.
type Subscription struct {
	C      <-chan Notice
	ch     chan Notice
	userID string
	hub    *Hub
	once   sync.Once
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// Hub tracks subscriptions per user.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a new subscription for userID.
func (h *Hub) Subscribe(userID string) *Subscription {
	ch := make(chan Notice, subscriberBuffer)
	s := &Subscription{C: ch, ch: ch, userID: userID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][s] = struct{}{}
	metrics.RealtimeSubscribers.Inc()
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[s.userID]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.userID)
	}
	close(s.ch)
	metrics.RealtimeSubscribers.Dec()
}

// Publish sends an invalidation notice to every subscription of userID.
// It never blocks: a subscriber with a full buffer misses the notice.
func (h *Hub) Publish(userID string, keys ...string) {
	if len(keys) == 0 {
		return
	}
	n := Notice{Type: noticeInvalidate, Keys: keys}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[userID] {
		deliver(s, n)
	}
}

// Broadcast sends an invalidation notice to every subscription.
func (h *Hub) Broadcast(keys ...string) {
	if len(keys) == 0 {
		return
	}
	n := Notice{Type: noticeInvalidate, Keys: keys}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for s := range set {
			deliver(s, n)
		}
	}
}

func deliver(s *Subscription, n Notice) {
	select {
	case s.ch <- n:
		metrics.RealtimeNotices.WithLabelValues("sent").Inc()
	default:
		metrics.RealtimeNotices.WithLabelValues("dropped").Inc()
	}
}

// Subscribers reports the number of open subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
