package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	// Every path leads out of PENDING.
	assert.True(t, CanTransition(ReservationPending, ReservationConfirmed))
	assert.True(t, CanTransition(ReservationPending, ReservationExpired))
	assert.True(t, CanTransition(ReservationPending, ReservationCancelled))

	// No path leads back, and terminal states never move.
	for _, from := range []string{ReservationConfirmed, ReservationExpired, ReservationCancelled} {
		for _, to := range []string{ReservationPending, ReservationConfirmed, ReservationExpired, ReservationCancelled} {
			assert.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}
	assert.False(t, CanTransition(ReservationPending, ReservationPending))
}
