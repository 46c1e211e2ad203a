package messaging

import (
	"context"
	"encoding/json"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message *Message) error
	Subscribe(ctx context.Context, channel string) (<-chan *Message, error)
	Close() error
}

// Message is the envelope every published event travels in.
type Message struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Headers map[string]string `json:"headers,omitempty"`
	Payload json.RawMessage   `json:"payload"`
}
