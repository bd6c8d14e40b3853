package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docwatch/internal/reminder/models"
	id "docwatch/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func sampleEvent(action Action) Event {
	return Event{
		At:          time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		DocumentID:  id.NewDocumentID(),
		RecipientID: id.NewRecipientID(),
		Channel:     models.ChannelVoice,
		Action:      action,
		Attempt:     1,
	}
}

func TestWorkerAppendsPublishedEvents(t *testing.T) {
	publisher := NewChannelPublisher(16, discardLogger())
	store := NewMemoryStore()
	worker := NewWorker(publisher.Events(), store, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	publisher.Publish(sampleEvent(ActionCallPlaced))
	publisher.Publish(sampleEvent(ActionConfirmed))

	require.Eventually(t, func() bool {
		return len(store.List()) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	recorded := store.List()
	require.Equal(t, ActionCallPlaced, recorded[0].Action)
	require.Equal(t, ActionConfirmed, recorded[1].Action)
}

func TestWorkerDrainsBufferOnShutdown(t *testing.T) {
	publisher := NewChannelPublisher(16, discardLogger())
	store := NewMemoryStore()
	worker := NewWorker(publisher.Events(), store, discardLogger())

	for i := 0; i < 5; i++ {
		publisher.Publish(sampleEvent(ActionDispatched))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := worker.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, store.List(), 5)
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	publisher := NewChannelPublisher(2, discardLogger())

	publisher.Publish(sampleEvent(ActionDispatched))
	publisher.Publish(sampleEvent(ActionDispatched))
	// Buffer is full and no worker is draining; this must not block.
	publisher.Publish(sampleEvent(ActionDispatched))

	require.Len(t, publisher.Events(), 2)
}
