package callbacktoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "docwatch/pkg/domain"
	dErrors "docwatch/pkg/domain-errors"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	signer := New("test-signing-key", 48*time.Hour)
	docID := id.NewDocumentID()
	recipientID := id.NewRecipientID()
	now := time.Now()

	token, err := signer.Mint(docID, recipientID, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotDoc, gotRecipient, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, docID, gotDoc)
	assert.Equal(t, recipientID, gotRecipient)
}

func TestVerifyRejectsTampering(t *testing.T) {
	signer := New("test-signing-key", 48*time.Hour)
	token, err := signer.Mint(id.NewDocumentID(), id.NewRecipientID(), time.Now())
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		other := New("different-key", 48*time.Hour)
		_, _, err := other.Verify(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("mangled token", func(t *testing.T) {
		_, _, err := signer.Verify(token + "x")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, _, err := signer.Verify("not.a.token")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestVerifyRejectsExpired(t *testing.T) {
	signer := New("test-signing-key", time.Minute)
	token, err := signer.Mint(id.NewDocumentID(), id.NewRecipientID(), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, _, err = signer.Verify(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "expired")
}
