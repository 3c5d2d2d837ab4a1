package model

import "time"

// Reservation statuses. PENDING is the only non-terminal status; the
// transition graph is PENDING -> {CONFIRMED, EXPIRED, CANCELLED}.
// CANCELLED is reserved for a future user-initiated cancel and is never
// produced by the coordinator today.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationExpired   = "EXPIRED"
	ReservationCancelled = "CANCELLED"
)

// Reservation is a time-bounded exclusive hold on exactly one seat by one
// buyer. Reservations are created and mutated only by the coordinator and
// never physically deleted.
//
// Fields:
//  ID        – primary key (UUID).
//  SeatID    – seat being held; at most one PENDING reservation per seat.
//  UserID    – opaque buyer identifier.
//  Status    – PENDING, CONFIRMED, EXPIRED or CANCELLED.
//  ExpiresAt – absolute deadline after which the hold may be reclaimed.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        string    // reservations.id
	SeatID    string    // reservations.seat_id
	UserID    string    // reservations.user_id
	Status    string    // reservations.status
	ExpiresAt time.Time // reservations.expires_at
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}

// CanTransition reports whether a reservation may move from one status to
// another. Statuses are monotonic: every path leads out of PENDING and no
// path leads back.
func CanTransition(from, to string) bool {
	if from != ReservationPending {
		return false
	}
	switch to {
	case ReservationConfirmed, ReservationExpired, ReservationCancelled:
		return true
	}
	return false
}
