package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docwatch/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs".
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDocumentID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseDocumentID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRecipientID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseDocumentID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, DocumentID(valid), id)
	})
}

func TestTextRoundTrip(t *testing.T) {
	docID := NewDocumentID()

	text, err := docID.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, docID.String(), string(text))

	var decoded DocumentID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, docID, decoded)

	var invalid RecipientID
	err = invalid.UnmarshalText([]byte("not-a-uuid"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// TestTypeDistinction verifies the compiler enforces type safety between ID
// kinds. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	docID := DocumentID(uuid.New())
	recipientID := RecipientID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ DocumentID = recipientID // compile error
	// var _ RecipientID = docID      // compile error

	assert.NotEqual(t, uuid.UUID(docID), uuid.UUID(recipientID))
}
