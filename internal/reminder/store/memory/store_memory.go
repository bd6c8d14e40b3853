// Package memory provides in-process ledger stores for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"docwatch/internal/reminder/models"
	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

// DocumentStore keeps tracked documents in a mutex-guarded map. All mutations
// happen under the write lock, which gives the per-document atomicity the
// store contract requires.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*models.TrackedDocument
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[id.DocumentID]*models.TrackedDocument)}
}

func (s *DocumentStore) Create(_ context.Context, doc *models.TrackedDocument) error {
	if doc == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "document is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "document already tracked")
	}
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *DocumentStore) Get(_ context.Context, docID id.DocumentID) (*models.TrackedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[docID]
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	copied := *doc
	return &copied, nil
}

func (s *DocumentStore) ListExpiring(_ context.Context) ([]*models.TrackedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*models.TrackedDocument, 0, len(s.docs))
	for _, doc := range s.docs {
		if doc.ExpiresAt.IsZero() {
			continue
		}
		copied := *doc
		docs = append(docs, &copied)
	}
	return docs, nil
}

func (s *DocumentStore) MarkChannelSent(_ context.Context, docID id.DocumentID, channel models.Channel) (bool, error) {
	if !channel.IsValid() {
		return false, dErrors.New(dErrors.CodeInvalidInput, "unknown channel")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[docID]
	if !exists {
		return false, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if doc.SentOn(channel) {
		return false, nil
	}
	switch channel {
	case models.ChannelChat:
		doc.ChatSent = true
	case models.ChannelSMS:
		doc.SMSSent = true
	case models.ChannelVoice:
		doc.VoiceSent = true
	}
	return true, nil
}

func (s *DocumentStore) RecordCallAttempt(_ context.Context, docID id.DocumentID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[docID]
	if !exists {
		return false, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if doc.VoiceSent {
		return false, nil
	}
	doc.CallAttempts++
	stamped := at.UTC()
	doc.LastCallAt = &stamped
	return true, nil
}

func (s *DocumentStore) ConfirmVoice(_ context.Context, docID id.DocumentID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[docID]
	if !exists {
		return false, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if doc.VoiceSent {
		return false, nil
	}
	doc.VoiceSent = true
	return true, nil
}

// RecipientStore keeps recipients in a mutex-guarded map.
type RecipientStore struct {
	mu         sync.RWMutex
	recipients map[id.RecipientID]*models.Recipient
}

func NewRecipientStore() *RecipientStore {
	return &RecipientStore{recipients: make(map[id.RecipientID]*models.Recipient)}
}

func (s *RecipientStore) Create(_ context.Context, recipient *models.Recipient) error {
	if recipient == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.recipients[recipient.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "recipient already exists")
	}
	copied := *recipient
	s.recipients[recipient.ID] = &copied
	return nil
}

func (s *RecipientStore) Get(_ context.Context, recipientID id.RecipientID) (*models.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipient, exists := s.recipients[recipientID]
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "recipient not found")
	}
	copied := *recipient
	return &copied, nil
}
