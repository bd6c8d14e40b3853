// Package events records the delivery audit trail. Every scheduler decision
// that touches a recipient produces one event; the trail is best effort and
// never blocks or fails a dispatch.
package events

import (
	"context"
	"log/slog"
	"time"

	"docwatch/internal/reminder/models"
	id "docwatch/pkg/domain"
)

// Action is the kind of delivery event.
type Action string

const (
	ActionDispatched     Action = "dispatched"
	ActionDispatchFailed Action = "dispatch_failed"
	ActionCallPlaced     Action = "call_placed"
	ActionConfirmed      Action = "confirmed"
	ActionSkipped        Action = "skipped"
)

// Event is one entry in the delivery audit trail.
type Event struct {
	At          time.Time       `json:"at"`
	DocumentID  id.DocumentID   `json:"document_id"`
	RecipientID id.RecipientID  `json:"recipient_id"`
	Channel     models.Channel  `json:"channel"`
	Action      Action          `json:"action"`
	// Attempt is the 1-based voice attempt number; zero for other channels.
	Attempt int    `json:"attempt,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Publisher accepts events from the hot path. Implementations must not block.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// ChannelPublisher buffers events for a Worker. A full buffer drops the
// event with a warning instead of stalling the scheduler.
type ChannelPublisher struct {
	events chan Event
	logger *slog.Logger
}

// NewChannelPublisher constructs a publisher with the given buffer size.
func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{
		events: make(chan Event, buffer),
		logger: logger,
	}
}

func (p *ChannelPublisher) Publish(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("delivery event buffer full, dropping event",
			"document_id", event.DocumentID, "action", event.Action)
	}
}

// Events exposes the buffered stream for the worker.
func (p *ChannelPublisher) Events() <-chan Event {
	return p.events
}

// Store persists delivery events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Worker drains a publisher's buffer into a store.
type Worker struct {
	source <-chan Event
	store  Store
	logger *slog.Logger
}

// NewWorker constructs a worker reading from source.
func NewWorker(source <-chan Event, store Store, logger *slog.Logger) *Worker {
	return &Worker{source: source, store: store, logger: logger}
}

// Run consumes events until ctx is cancelled, then drains whatever is
// already buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.source:
			w.append(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event := <-w.source:
			// Detached context: the run context is already cancelled.
			w.append(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "append delivery event failed",
			"document_id", event.DocumentID, "action", event.Action, "error", err)
	}
}
