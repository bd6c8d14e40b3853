// Package confirm applies voice-reminder confirmations arriving from the
// telephony webhook.
package confirm

import (
	"context"
	"log/slog"
	"time"

	"docwatch/internal/reminder/events"
	"docwatch/internal/reminder/metrics"
	"docwatch/internal/reminder/models"
	"docwatch/internal/reminder/store"
	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

// Service marks voice reminders heard. Confirmation is terminal: a confirmed
// document never receives another call, and attempt counters stay untouched.
type Service struct {
	documents store.DocumentStore
	publisher events.Publisher
	logger    *slog.Logger
}

// Option customizes service construction.
type Option func(*Service)

// WithEventPublisher installs a delivery-event publisher.
func WithEventPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// NewService constructs the confirmation service.
func NewService(documents store.DocumentStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		documents: documents,
		publisher: events.NopPublisher{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConfirmVoice records that the recipient heard the reminder for the given
// document. The recipient ID must match the document's owner; a mismatch or
// an unknown document means the ledger and the inbound token disagree.
// Re-confirming an already confirmed document is a no-op.
func (s *Service) ConfirmVoice(ctx context.Context, documentID id.DocumentID, recipientID id.RecipientID) error {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.Wrap(err, dErrors.CodeLedgerInconsistent, "confirmation for untracked document")
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "load document for confirmation")
	}
	if doc.RecipientID != recipientID {
		return dErrors.New(dErrors.CodeLedgerInconsistent, "confirmation recipient does not own document")
	}

	changed, err := s.documents.ConfirmVoice(ctx, documentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "record voice confirmation")
	}
	if !changed {
		s.logger.InfoContext(ctx, "voice reminder already confirmed",
			"document_id", documentID)
		return nil
	}

	metrics.VoiceConfirmed()
	s.publisher.Publish(events.Event{
		At:          time.Now().UTC(),
		DocumentID:  documentID,
		RecipientID: recipientID,
		Channel:     models.ChannelVoice,
		Action:      events.ActionConfirmed,
		Attempt:     doc.CallAttempts,
	})
	s.logger.InfoContext(ctx, "voice reminder confirmed",
		"document_id", documentID, "attempts", doc.CallAttempts)
	return nil
}
