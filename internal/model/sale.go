package model

import "time"

// Sale is the append-only record of a confirmed purchase. Exactly one sale
// exists per confirmed reservation; sales are never mutated.
//
// Fields:
//  ID            – primary key (UUID).
//  SeatID        – purchased seat.
//  UserID        – buyer.
//  ReservationID – the confirmed reservation; unique across sales.
//  AmountCents   – price paid, in cents.
//  PaidAt        – payment timestamp; shared across a booking group.
//  CreatedAt     – creation timestamp.
type Sale struct {
	ID            string    // sales.id
	SeatID        string    // sales.seat_id
	UserID        string    // sales.user_id
	ReservationID string    // sales.reservation_id
	AmountCents   uint32    // sales.amount_cents
	PaidAt        time.Time // sales.paid_at
	CreatedAt     time.Time // sales.created_at
}
