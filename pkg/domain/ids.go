// Package domain holds typed identifiers shared across the reminder core.
// Distinct UUID-backed types keep document and recipient IDs from being
// swapped at call sites; Parse* constructors enforce validity at trust
// boundaries (webhook input, storage rows).
package domain

import (
	"github.com/google/uuid"

	dErrors "docwatch/pkg/domain-errors"
)

// DocumentID identifies a tracked document.
type DocumentID uuid.UUID

// RecipientID identifies a reminder recipient.
type RecipientID uuid.UUID

// NewDocumentID returns a fresh random document ID.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New())
}

// NewRecipientID returns a fresh random recipient ID.
func NewRecipientID() RecipientID {
	return RecipientID(uuid.New())
}

// ParseDocumentID validates external input as a document ID.
func ParseDocumentID(s string) (DocumentID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(parsed), nil
}

// ParseRecipientID validates external input as a recipient ID.
func ParseRecipientID(s string) (RecipientID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return RecipientID{}, err
	}
	return RecipientID(parsed), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return parsed, nil
}

func (id DocumentID) String() string  { return uuid.UUID(id).String() }
func (id RecipientID) String() string { return uuid.UUID(id).String() }

// Text marshaling keeps serialized IDs in canonical UUID form (JSON event
// payloads, log output), not raw byte arrays.

func (id DocumentID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id RecipientID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *DocumentID) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RecipientID) UnmarshalText(text []byte) error {
	parsed, err := ParseRecipientID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id DocumentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RecipientID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
