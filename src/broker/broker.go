// Package broker publishes run and cancellation events to a message broker.
package broker

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed broker.
var ErrClosed = errors.New("broker is closed")

// Broker abstracts message publishing and consumption.
// The in-memory implementation backs tests;
// the Redpanda implementation talks to any Kafka-compatible cluster.
type Broker interface {
	// Publish sends a message to a topic with a key used for partitioning.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// PublishBatch sends records in order and waits for all of them.
	// Failed records are reported together; the others are still delivered.
	PublishBatch(ctx context.Context, records []Record) error

	// Subscribe returns a channel for consuming messages from a topic.
	// groupID is used for consumer group coordination in Kafka.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	// Close shuts down the broker connection gracefully.
	Close() error
}

// Record is a message to publish.
type Record struct {
	Topic string
	Key   string
	Value []byte
}

// Message represents a consumed message from a broker.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	Timestamp int64
}
