package confirm

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docwatch/internal/reminder/events"
	"docwatch/internal/reminder/models"
	"docwatch/internal/reminder/store/memory"
	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

type ConfirmSuite struct {
	suite.Suite

	documents *memory.DocumentStore
	audit     *events.MemoryStore
	service   *Service

	doc       *models.TrackedDocument
	recipient id.RecipientID
}

func TestConfirmSuite(t *testing.T) {
	suite.Run(t, new(ConfirmSuite))
}

func (s *ConfirmSuite) SetupTest() {
	s.documents = memory.NewDocumentStore()
	s.audit = events.NewMemoryStore()
	s.service = NewService(s.documents, slog.New(slog.DiscardHandler),
		WithEventPublisher(syncPublisher{s.audit}))

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.recipient = id.NewRecipientID()
	s.doc = &models.TrackedDocument{
		ID:           id.NewDocumentID(),
		RecipientID:  s.recipient,
		Name:         "passport",
		ExpiresAt:    now.AddDate(0, 0, 10),
		CallAttempts: 2,
		LastCallAt:   &now,
		CreatedAt:    now,
	}
	s.Require().NoError(s.documents.Create(context.Background(), s.doc))
}

type syncPublisher struct {
	store *events.MemoryStore
}

func (p syncPublisher) Publish(event events.Event) {
	_ = p.store.Append(context.Background(), event)
}

func (s *ConfirmSuite) TestConfirmMarksVoiceSent() {
	err := s.service.ConfirmVoice(context.Background(), s.doc.ID, s.recipient)
	s.Require().NoError(err)

	stored, err := s.documents.Get(context.Background(), s.doc.ID)
	s.Require().NoError(err)
	s.True(stored.VoiceSent)
	s.Equal(2, stored.CallAttempts, "confirmation must not touch attempt bookkeeping")

	recorded := s.audit.List()
	s.Require().Len(recorded, 1)
	s.Equal(events.ActionConfirmed, recorded[0].Action)
	s.Equal(s.doc.ID, recorded[0].DocumentID)
	s.Equal(2, recorded[0].Attempt)
}

func (s *ConfirmSuite) TestConfirmIsIdempotent() {
	s.Require().NoError(s.service.ConfirmVoice(context.Background(), s.doc.ID, s.recipient))
	s.Require().NoError(s.service.ConfirmVoice(context.Background(), s.doc.ID, s.recipient))

	s.Len(s.audit.List(), 1, "repeat confirmation emits no second event")
}

func (s *ConfirmSuite) TestConfirmUnknownDocument() {
	err := s.service.ConfirmVoice(context.Background(), id.NewDocumentID(), s.recipient)
	s.True(dErrors.HasCode(err, dErrors.CodeLedgerInconsistent))
	s.Empty(s.audit.List())
}

func (s *ConfirmSuite) TestConfirmWrongRecipient() {
	err := s.service.ConfirmVoice(context.Background(), s.doc.ID, id.NewRecipientID())
	s.True(dErrors.HasCode(err, dErrors.CodeLedgerInconsistent))

	stored, err := s.documents.Get(context.Background(), s.doc.ID)
	s.Require().NoError(err)
	s.False(stored.VoiceSent)
}
