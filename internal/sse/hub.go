// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 16

// Subscription receives formatted events for one connected client.
type Subscription struct {
	ch    chan string
	topic string
}

// Events returns the channel events are delivered on. It is closed by
// Hub.Unsubscribe.
func (s *Subscription) Events() <-chan string {
	return s.ch
}

// Topic returns the topic the subscription filters on; empty means all.
func (s *Subscription) Topic() string {
	return s.topic
}

// Hub fans events out to subscribers. Slow subscribers miss events rather
// than block publishers.
type Hub struct {
	subs    map[*Subscription]struct{}
	mu      sync.RWMutex
	dropped atomic.Int64
	closed  bool
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a client for events on topic, or on every topic when
// topic is empty.
func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{ch: make(chan string, subscriberBuffer), topic: topic}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a subscription and closes its channel. Calling it
// twice is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

// Publish delivers message to every subscriber of topic and to every
// unfiltered subscriber. It returns the number of subscribers reached.
func (h *Hub) Publish(topic, message string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs {
		if sub.topic != "" && sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- message:
			delivered++
		default:
			h.dropped.Add(1)
		}
	}
	return delivered
}

// Close disconnects every subscriber. Later subscriptions are closed
// immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
