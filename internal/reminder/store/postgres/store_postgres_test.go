package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwatch/internal/reminder/models"
	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

func newMockStore(t *testing.T) (*DocumentStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewDocumentStore(db), mock
}

func TestMarkChannelSent_FirstWriteWins(t *testing.T) {
	store, mock := newMockStore(t)
	docID := id.NewDocumentID()

	mock.ExpectExec(`UPDATE tracked_documents SET chat_sent = TRUE`).
		WithArgs(uuid.UUID(docID)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := store.MarkChannelSent(context.Background(), docID, models.ChannelChat)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkChannelSent_AlreadySent(t *testing.T) {
	store, mock := newMockStore(t)
	docID := id.NewDocumentID()

	mock.ExpectExec(`UPDATE tracked_documents SET sms_sent = TRUE`).
		WithArgs(uuid.UUID(docID)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uuid.UUID(docID)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	changed, err := store.MarkChannelSent(context.Background(), docID, models.ChannelSMS)
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkChannelSent_MissingDocument(t *testing.T) {
	store, mock := newMockStore(t)
	docID := id.NewDocumentID()

	mock.ExpectExec(`UPDATE tracked_documents SET chat_sent = TRUE`).
		WithArgs(uuid.UUID(docID)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uuid.UUID(docID)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := store.MarkChannelSent(context.Background(), docID, models.ChannelChat)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordCallAttempt_GuardedByConfirmation(t *testing.T) {
	store, mock := newMockStore(t)
	docID := id.NewDocumentID()
	at := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE tracked_documents\s+SET call_attempts = call_attempts \+ 1`).
		WithArgs(uuid.UUID(docID), at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uuid.UUID(docID)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	placed, err := store.RecordCallAttempt(context.Background(), docID, at)
	require.NoError(t, err)
	assert.False(t, placed, "confirmed documents must not accrue attempts")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListExpiring_ScansRows(t *testing.T) {
	store, mock := newMockStore(t)
	docID := uuid.New()
	recipientID := uuid.New()
	expires := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lastCall := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM tracked_documents\s+WHERE expires_at IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "recipient_id", "name", "expires_at", "chat_sent", "sms_sent",
			"voice_sent", "call_attempts", "last_call_at", "created_at",
		}).AddRow(docID, recipientID, "passport", expires, true, false, false, 2, lastCall, created))

	docs, err := store.ListExpiring(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id.DocumentID(docID), docs[0].ID)
	assert.Equal(t, "passport", docs[0].Name)
	assert.True(t, docs[0].ChatSent)
	assert.Equal(t, 2, docs[0].CallAttempts)
	require.NotNil(t, docs[0].LastCallAt)
	assert.Equal(t, lastCall, *docs[0].LastCallAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmVoice_Idempotent(t *testing.T) {
	store, mock := newMockStore(t)
	docID := id.NewDocumentID()

	mock.ExpectExec(`UPDATE tracked_documents SET voice_sent = TRUE`).
		WithArgs(uuid.UUID(docID)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := store.ConfirmVoice(context.Background(), docID)
	require.NoError(t, err)
	assert.True(t, changed)

	mock.ExpectExec(`UPDATE tracked_documents SET voice_sent = TRUE`).
		WithArgs(uuid.UUID(docID)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(uuid.UUID(docID)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	changed, err = store.ConfirmVoice(context.Background(), docID)
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}
