// Package kafka publishes domain events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes JSON events keyed by an entity identifier, so all events
// for one key land on the same partition.
type Producer struct {
	w     MessageWriter
	topic string
	now   func() time.Time
}

// NewProducer connects a hash-balanced writer to brokers.
func NewProducer(brokers []string, topic string) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}, topic)
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w MessageWriter, topic string) *Producer {
	return &Producer{w: w, topic: topic, now: time.Now}
}

// Topic returns the topic events are written to.
func (p *Producer) Topic() string { return p.topic }

// PublishJSON encodes v and writes it under key.
func (p *Producer) PublishJSON(ctx context.Context, key string, v interface{}, headers ...kafka.Header) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kafka: marshal: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    p.now(),
		Headers: headers,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending writes and releases the connection.
func (p *Producer) Close() error { return p.w.Close() }
