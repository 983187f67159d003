// Package events fans recognition and speech events out to UI subscribers.
//
// Event names follow the method names the mobile UI listens for.
package events

import (
	"sync"
	"time"
)

// Method names carried by Event.Method.
const (
	MethodPrediction    = "onPrediction"
	MethodDebug         = "onDebug"
	MethodPartialResult = "onPartialResult"
	MethodFinalResult   = "onFinalResult"
)

// subscriberBuffer is how many events a slow subscriber may lag before
// events are dropped for it.
const subscriberBuffer = 32

// Event is one message for the UI.
type Event struct {
	Method     string    `json:"method"`
	Label      string    `json:"label,omitempty"`
	Confidence float32   `json:"confidence,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Text       string    `json:"text,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Time       time.Time `json:"time"`
}

// Hub delivers published events to every current subscriber. Publishing
// never blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a subscriber. Call the returned function to
// unsubscribe; the channel is closed afterwards.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Publish sends e to all subscribers, stamping Time if unset.
func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the number of current subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
