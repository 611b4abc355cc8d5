package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outermost code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("register: %w", New(CodeRaceFull, "race is full"))
		assert.True(t, HasCode(err, CodeRaceFull))
		assert.False(t, HasCode(err, CodeAlreadyRegistered))
	})

	t.Run("wrap keeps cause reachable", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeUnavailable, "store unavailable")
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, CodeUnavailable, CodeOf(err))
		assert.Equal(t, "store unavailable: connection reset", err.Error())
	})

	t.Run("plain errors report internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeContentionExceeded, "busy")))
	assert.False(t, IsRetryable(New(CodeRaceFull, "full")))
}
