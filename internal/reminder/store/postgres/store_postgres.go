// Package postgres persists the reminder ledger in PostgreSQL. Every
// mutation is a single conditional UPDATE, so the sent-flag and attempt
// invariants hold even when the scheduler and the confirmation webhook hit
// the same row concurrently. No lock is ever held across a transport call.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"docwatch/internal/reminder/models"
	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

// DocumentStore is the PostgreSQL-backed ledger.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore constructs a PostgreSQL-backed document store.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// sentColumns whitelists the per-channel flag columns; channel values never
// reach the SQL text directly.
var sentColumns = map[models.Channel]string{
	models.ChannelChat:  "chat_sent",
	models.ChannelSMS:   "sms_sent",
	models.ChannelVoice: "voice_sent",
}

const documentColumns = `id, recipient_id, name, expires_at, chat_sent, sms_sent, voice_sent, call_attempts, last_call_at, created_at`

func (s *DocumentStore) Create(ctx context.Context, doc *models.TrackedDocument) error {
	if doc == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "document is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked_documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(doc.ID), uuid.UUID(doc.RecipientID), doc.Name, doc.ExpiresAt.UTC(),
		doc.ChatSent, doc.SMSSent, doc.VoiceSent, doc.CallAttempts,
		nullTime(doc.LastCallAt), doc.CreatedAt.UTC(),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "insert tracked document")
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, docID id.DocumentID) (*models.TrackedDocument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM tracked_documents WHERE id = $1`, uuid.UUID(docID))

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "get tracked document")
	}
	return doc, nil
}

func (s *DocumentStore) ListExpiring(ctx context.Context) ([]*models.TrackedDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM tracked_documents
		WHERE expires_at IS NOT NULL
		ORDER BY expires_at`)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "list expiring documents")
	}
	defer rows.Close()

	var docs []*models.TrackedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeStorage, "scan tracked document")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "iterate tracked documents")
	}
	return docs, nil
}

func (s *DocumentStore) MarkChannelSent(ctx context.Context, docID id.DocumentID, channel models.Channel) (bool, error) {
	column, ok := sentColumns[channel]
	if !ok {
		return false, dErrors.New(dErrors.CodeInvalidInput, "unknown channel")
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE tracked_documents SET `+column+` = TRUE
		WHERE id = $1 AND `+column+` = FALSE`, uuid.UUID(docID))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeStorage, "mark channel sent")
	}
	return s.changedOrMissing(ctx, result, docID)
}

func (s *DocumentStore) RecordCallAttempt(ctx context.Context, docID id.DocumentID, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tracked_documents
		SET call_attempts = call_attempts + 1, last_call_at = $2
		WHERE id = $1 AND voice_sent = FALSE`, uuid.UUID(docID), at.UTC())
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeStorage, "record call attempt")
	}
	return s.changedOrMissing(ctx, result, docID)
}

func (s *DocumentStore) ConfirmVoice(ctx context.Context, docID id.DocumentID) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tracked_documents SET voice_sent = TRUE
		WHERE id = $1 AND voice_sent = FALSE`, uuid.UUID(docID))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeStorage, "confirm voice")
	}
	return s.changedOrMissing(ctx, result, docID)
}

// changedOrMissing distinguishes "condition already satisfied" (no change,
// nil error) from "row does not exist" (not found).
func (s *DocumentStore) changedOrMissing(ctx context.Context, result sql.Result, docID id.DocumentID) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeStorage, "rows affected")
	}
	if affected > 0 {
		return true, nil
	}
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tracked_documents WHERE id = $1)`,
		uuid.UUID(docID)).Scan(&exists)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeStorage, "check document existence")
	}
	if !exists {
		return false, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.TrackedDocument, error) {
	var (
		doc         models.TrackedDocument
		docID       uuid.UUID
		recipientID uuid.UUID
		lastCall    sql.NullTime
	)
	err := row.Scan(&docID, &recipientID, &doc.Name, &doc.ExpiresAt,
		&doc.ChatSent, &doc.SMSSent, &doc.VoiceSent, &doc.CallAttempts,
		&lastCall, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	doc.ID = id.DocumentID(docID)
	doc.RecipientID = id.RecipientID(recipientID)
	if lastCall.Valid {
		stamped := lastCall.Time.UTC()
		doc.LastCallAt = &stamped
	}
	doc.ExpiresAt = doc.ExpiresAt.UTC()
	return &doc, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

// RecipientStore is the PostgreSQL-backed recipient directory.
type RecipientStore struct {
	db *sql.DB
}

// NewRecipientStore constructs a PostgreSQL-backed recipient store.
func NewRecipientStore(db *sql.DB) *RecipientStore {
	return &RecipientStore{db: db}
}

func (s *RecipientStore) Create(ctx context.Context, recipient *models.Recipient) error {
	if recipient == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "recipient is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recipients (id, full_name, chat_address, phone_number, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(recipient.ID), recipient.FullName, recipient.ChatAddress,
		recipient.PhoneNumber, recipient.CreatedAt.UTC(),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "insert recipient")
	}
	return nil
}

func (s *RecipientStore) Get(ctx context.Context, recipientID id.RecipientID) (*models.Recipient, error) {
	var (
		recipient models.Recipient
		rid       uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, chat_address, phone_number, created_at
		FROM recipients WHERE id = $1`, uuid.UUID(recipientID)).
		Scan(&rid, &recipient.FullName, &recipient.ChatAddress, &recipient.PhoneNumber, &recipient.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "recipient not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "get recipient")
	}
	recipient.ID = id.RecipientID(rid)
	return &recipient, nil
}
