// AngelaMos | 2026
// hub.go

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Subscriber is one live listener, usually a websocket connection.
// Deliver must not block; returning false means the listener could not
// keep up and should be dropped.
type Subscriber interface {
	Deliver(payload []byte) bool
	Close()
}

// Event is a persisted message together with the topics it is addressed
// to. It is the unit that crosses the Redis relay.
type Event struct {
	Topics  []string        `json:"topics"`
	Message MessageResponse `json:"message"`
}

func ConversationTopic(conversationID string) string {
	return "conversation:" + conversationID
}

func ParticipantTopic(identity string) string {
	return "participant:" + normalizeIdentity(identity)
}

// TopicsFor lists everyone who should see a message in conv: sockets
// viewing the conversation and both participants.
func TopicsFor(conv *Conversation) []string {
	return []string{
		ConversationTopic(conv.ID),
		ParticipantTopic(conv.ParticipantA),
		ParticipantTopic(conv.ParticipantB),
	}
}

// Hub is the process-scoped registry of live listeners, keyed by topic.
// A message reaches a subscriber only when they share a topic.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[Subscriber]struct{}
	subs   map[Subscriber]map[string]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[Subscriber]struct{}),
		subs:   make(map[Subscriber]map[string]struct{}),
		logger: logger,
	}
}

func (h *Hub) Subscribe(sub Subscriber, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	owned, ok := h.subs[sub]
	if !ok {
		owned = make(map[string]struct{})
		h.subs[sub] = owned
	}

	for _, topic := range topics {
		set, ok := h.topics[topic]
		if !ok {
			set = make(map[Subscriber]struct{})
			h.topics[topic] = set
		}
		set[sub] = struct{}{}
		owned[topic] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(sub Subscriber, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	owned := h.subs[sub]
	for _, topic := range topics {
		h.detachLocked(sub, topic)
		delete(owned, topic)
	}
}

// Remove drops sub from every topic. Safe to call more than once.
func (h *Hub) Remove(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub Subscriber) {
	owned, ok := h.subs[sub]
	if !ok {
		return
	}
	for topic := range owned {
		h.detachLocked(sub, topic)
	}
	delete(h.subs, sub)
}

func (h *Hub) detachLocked(sub Subscriber, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
}

// Publish delivers ev once to every subscriber of any of its topics.
// Subscribers whose buffers are full are removed and closed.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev.Message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	h.mu.RLock()
	targets := make(map[Subscriber]struct{})
	for _, topic := range ev.Topics {
		for sub := range h.topics[topic] {
			targets[sub] = struct{}{}
		}
	}
	h.mu.RUnlock()

	var slow []Subscriber
	for sub := range targets {
		if !sub.Deliver(payload) {
			slow = append(slow, sub)
		}
	}

	if len(slow) > 0 {
		h.mu.Lock()
		for _, sub := range slow {
			h.removeLocked(sub)
		}
		h.mu.Unlock()

		for _, sub := range slow {
			sub.Close()
		}
		h.logger.Warn("dropped slow chat subscribers",
			"count", len(slow),
			"conversation_id", ev.Message.ConversationID,
		)
	}

	return nil
}

// CloseAll drops and closes every subscriber. Used on shutdown, since
// hijacked websocket connections outlive http.Server.Shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := make([]Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.topics = make(map[string]map[Subscriber]struct{})
	h.subs = make(map[Subscriber]map[string]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) TopicCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}
