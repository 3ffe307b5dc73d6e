package events

import (
	"context"
	"time"
)

// TopicRequests carries one event per served HTTP request
const TopicRequests = "requests"

// RequestEvent describes a served HTTP request
type RequestEvent struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Endpoint   string    `json:"endpoint"`
	Status     int       `json:"status"`
	DurationMs float64   `json:"duration_ms"`
	ClientIP   string    `json:"client_ip"`
	Timestamp  time.Time `json:"timestamp"`
}

// Handler receives events for a subscription. Handlers must not block.
type Handler func(ctx context.Context, event RequestEvent) error

// Bus publishes request events and fans them out to subscribers
type Bus interface {
	// Publish delivers an event to every subscriber of topic
	Publish(ctx context.Context, topic string, event RequestEvent) error
	// Subscribe registers handler until ctx is cancelled
	Subscribe(ctx context.Context, topic string, handler Handler) error
	// Close releases bus resources
	Close() error
}
