// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package notify provides best-effort pub/sub fan-out of session updates.
//
// # Description
//
// The hub is not a durable log: notifications are delivered to current
// subscribers only, late subscribers miss prior notifications, and there is
// no replay. Transports (WebSocket, SSE) subscribe per topic and forward
// updates to their clients.
//
// # Thread Safety
//
// Hub is safe for concurrent use.
package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/LexForgeAI/LexForge/services/revision/collab"
)

// Handler receives one delivered update. Handlers must not block; slow
// consumers should buffer internally.
type Handler func(update collab.DiffUpdate)

type subscriber struct {
	id      string
	handler Handler
}

// Hub fans updates out to topic subscribers.
type Hub struct {
	mu     sync.RWMutex
	topics map[string][]subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[string][]subscriber)}
}

// Subscribe registers a handler on a topic.
//
// # Outputs
//
//   - string: Subscriber id, used to unsubscribe.
func (h *Hub) Subscribe(topic string, handler Handler) string {
	id := uuid.New().String()

	h.mu.Lock()
	h.topics[topic] = append(h.topics[topic], subscriber{id: id, handler: handler})
	h.mu.Unlock()

	slog.Debug("subscriber added", "topic", topic, "subscriber_id", id)
	return id
}

// Unsubscribe removes a subscriber from a topic. Unknown ids are a no-op.
func (h *Hub) Unsubscribe(topic, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[topic]
	for i, sub := range subs {
		if sub.id == subscriberID {
			h.topics[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
}

// Notify delivers an update to every current subscriber of the topic.
//
// # Description
//
// Best-effort synchronous fan-out: the update is handed to each handler in
// subscription order. Panicking handlers are recovered and skipped so one
// bad consumer cannot take down the publisher.
//
// # Outputs
//
//   - int: Number of subscribers the update was delivered to.
func (h *Hub) Notify(topic string, update collab.DiffUpdate) int {
	h.mu.RLock()
	subs := make([]subscriber, len(h.topics[topic]))
	copy(subs, h.topics[topic])
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("notify handler panicked",
						"topic", topic,
						"subscriber_id", sub.id,
						"panic", r,
					)
				}
			}()
			sub.handler(update)
			delivered++
		}()
	}
	return delivered
}

// SubscriberCount returns the number of current subscribers on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// SessionTopic returns the hub topic carrying one session's updates.
func SessionTopic(sessionID string) string {
	return "session." + sessionID
}
