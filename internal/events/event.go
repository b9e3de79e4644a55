// Package events carries ledger events to external observers. Publishing is
// fire-and-forget: nothing in the ledger reads events back.
package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"tycoon_ledger/internal/logger"
)

// Event is one notification emitted by a committed invocation.
type Event struct {
	ID           uuid.UUID       `json:"id"`
	InvocationID uuid.UUID       `json:"invocation_id"`
	Topic        string          `json:"topic"`
	Sequence     uint32          `json:"sequence"`
	Timestamp    uint64          `json:"timestamp"`
	Payload      json.RawMessage `json:"payload"`
}

// Sink receives published events.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to the structured log.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, ev Event) error {
	logger.Info("ledger event",
		"topic", ev.Topic,
		"event_id", ev.ID.String(),
		"invocation_id", ev.InvocationID.String(),
		"sequence", ev.Sequence,
		"payload", string(ev.Payload),
	)
	return nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }
