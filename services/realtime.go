package services

import (
	"sync"
)

// Event is pushed to realtime subscribers
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types
const (
	EventMessage      = "message"
	EventNotification = "notification"
)

// subscriberBuffer is how many events a slow subscriber may lag behind
// before new events are dropped for it.
const subscriberBuffer = 16

// Hub fans out events to subscribers of a topic. Publish never blocks: a
// subscriber whose buffer is full misses the event and catches up on its
// next fetch.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[chan Event]struct{})}
}

// Realtime is the process wide hub used by the messaging service and the
// websocket handler.
var Realtime = NewHub()

// ThreadTopic is the topic carrying new messages of a thread
func ThreadTopic(threadID string) string {
	return "thread:" + threadID
}

// UserTopic is the topic carrying a user's notifications
func UserTopic(userID string) string {
	return "user:" + userID
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release it; the channel is closed afterwards.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.topics[topic]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber of topic and
// returns how many received it.
func (h *Hub) Publish(topic string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.topics[topic] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of subscribers of topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
