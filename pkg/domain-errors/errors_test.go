package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeNotFound, "document not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		inner := New(CodeStorage, "write failed")
		outer := fmt.Errorf("tick aborted: %w", inner)
		assert.True(t, HasCode(outer, CodeStorage))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeTransport, "send sms")

	require.Error(t, err)
	assert.True(t, HasCode(err, CodeTransport))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "send sms")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeRendering, CodeOf(New(CodeRendering, "renderer down")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("untyped")))
}
