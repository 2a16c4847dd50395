// Package events carries status-change events from the appointment core to
// downstream delivery (real-time push, email). Delivery is at-most-once and
// best-effort: publishers never block or fail a committed transaction.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Event is a single broadcast to downstream consumers.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NewEvent marshals payload into an Event. Marshal failures are reported to
// the caller so nothing half-formed is ever broadcast.
func NewEvent(eventType, topic string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      eventType,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// LogSink is a Publisher that writes events to the structured log. It serves
// as the delivery fallback when no real-time transport is configured and as a
// durable trace beside one.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, event Event) error {
	s.logger.Info().
		Str("event_type", event.Type).
		Str("topic", event.Topic).
		RawJSON("data", event.Data).
		Time("timestamp", event.Timestamp).
		Msg("event published")
	return nil
}

// Fanout publishes to several sinks. A failing sink does not stop the others;
// the first error is returned for logging by the caller.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
