package broker

import (
	"context"
	"sync"
	"time"
)

const subscriberBuffer = 100

// InMemoryBroker delivers every published message to all current subscribers
// of its topic. Messages published before a subscription are not replayed.
type InMemoryBroker struct {
	mu          sync.Mutex
	subscribers map[string][]chan Message
	offsets     map[string]int64
	closed      bool
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subscribers: make(map[string][]chan Message),
		offsets:     make(map[string]int64),
	}
}

// Publish fans the message out. A subscriber whose buffer is full misses it.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	return b.PublishBatch(ctx, []Record{{Topic: topic, Key: key, Value: value}})
}

// PublishBatch fans out every record in order.
func (b *InMemoryBroker) PublishBatch(ctx context.Context, records []Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	for _, r := range records {
		b.deliver(r.Topic, r.Key, r.Value)
	}
	return nil
}

// deliver must be called with mu held.
func (b *InMemoryBroker) deliver(topic, key string, value []byte) {
	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     append([]byte(nil), value...),
		Offset:    b.offsets[topic],
		Timestamp: time.Now().UnixMilli(),
	}
	b.offsets[topic]++

	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a subscriber. The channel is closed when ctx is done or
// the broker is closed.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	ch := make(chan Message, subscriberBuffer)
	b.subscribers[topic] = append(b.subscribers[topic], ch)

	go func() {
		<-ctx.Done()
		b.unsubscribe(topic, ch)
	}()

	return ch, nil
}

func (b *InMemoryBroker) unsubscribe(topic string, ch chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, c := range subs {
		if c == ch {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes every subscriber channel.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for topic, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
	return nil
}
