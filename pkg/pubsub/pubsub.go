package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the web server
const (
	TopicStatus = "status" // Pipeline progress
	TopicResult = "result" // A run finished
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic
	Type    string          `json:"type"`    // Event type, e.g. "loading", "clustering", "ready"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close stops delivery to this subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// Status is the payload of status events
type Status struct {
	State   string `json:"state"`   // loading, clustering, presence, classifying, summarizing, ready, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based, 0 on error)
	Total   int    `json:"total"`   // Total number of steps
}

// RunSummary is the payload of result events
type RunSummary struct {
	RunID     string `json:"run_id"`
	Genomes   int    `json:"genomes"`
	Clusters  int    `json:"clusters"`
	Core      int    `json:"core"`
	Accessory int    `json:"accessory"`
	Unique    int    `json:"unique"`
}
