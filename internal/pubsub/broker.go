// Package pubsub fans state-change events out to live subscribers. Delivery
// is best effort: a client that misses an event recovers by re-fetching over
// HTTP, so the broker never buffers history and never waits for a slow
// consumer.
package pubsub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Topic names subscribed to by the WebSocket layer.
const (
	TopicScoreboard    = "scoreboard"
	TopicNotifications = "notifications"
)

// Event is the wire format pushed to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan []byte),
	}
}

// Subscribe registers a new subscriber on a topic. The returned channel is
// buffered; the cancel func must be called when the consumer goes away.
func (b *Broker) Subscribe(topic string) (<-chan []byte, func()) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subscribers[topic]
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}

	zap.S().Debugf("new subscription to topic %s", topic)
	return ch, unsubscribe
}

// Publish marshals the event and hands it to every live subscriber of the
// topic. A subscriber with a full buffer is skipped rather than allowed to
// backpressure the publisher.
func (b *Broker) Publish(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		zap.S().Errorf("failed to marshal %s event: %v", event.Type, err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		zap.S().Warnf("dropped %s event for %d slow subscribers", event.Type, dropped)
	}
}

// SubscriberCount is used by tests and the admin overview.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}
