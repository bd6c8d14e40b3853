// Package store declares the ledger access contracts. Implementations must
// apply every mutation as a per-document atomic read-modify-write so a
// scheduler tick and a confirmation callback can touch the same record
// concurrently without lost updates.
package store

import (
	"context"
	"time"

	"docwatch/internal/reminder/models"
	id "docwatch/pkg/domain"
)

// DocumentStore is the authoritative record of tracked documents.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.TrackedDocument) error
	Get(ctx context.Context, docID id.DocumentID) (*models.TrackedDocument, error)

	// ListExpiring returns all documents with a known expiration date.
	ListExpiring(ctx context.Context) ([]*models.TrackedDocument, error)

	// MarkChannelSent sets the channel's sent flag. Returns false when the
	// flag was already set, which callers treat as "another path won the
	// race"; the flag is never cleared.
	MarkChannelSent(ctx context.Context, docID id.DocumentID, channel models.Channel) (bool, error)

	// RecordCallAttempt increments the attempt counter and stamps the last
	// call time, but only while the voice channel is unconfirmed. Returns
	// false when the document is already confirmed or unknown.
	RecordCallAttempt(ctx context.Context, docID id.DocumentID, at time.Time) (bool, error)

	// ConfirmVoice sets the voice sent flag without touching attempt
	// bookkeeping. Returns false when already confirmed (idempotent no-op).
	ConfirmVoice(ctx context.Context, docID id.DocumentID) (bool, error)
}

// RecipientStore resolves reminder recipients.
type RecipientStore interface {
	Create(ctx context.Context, recipient *models.Recipient) error
	Get(ctx context.Context, recipientID id.RecipientID) (*models.Recipient, error)
}
