package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(KindConflict, "Seat %s is not available (current status: %s)", "A3", "RESERVED")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Seat A3 is not available (current status: RESERVED)", Message(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, KindConflict, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("deadlock found when trying to get lock")
	err := Wrap(KindStoreConflict, cause, "store conflict")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "STORE_CONFLICT")
	assert.Contains(t, err.Error(), "deadlock")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(KindStoreConflict, "deadlock")))
	assert.True(t, IsRetryable(New(KindStoreUnavailable, "gone")))
	assert.False(t, IsRetryable(New(KindConflict, "seat taken")))
	assert.False(t, IsRetryable(New(KindNotFound, "missing")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}
