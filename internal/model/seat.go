package model

import "time"

// Seat statuses. AVAILABLE may be re-entered only from RESERVED via
// expiration; SOLD is terminal.
const (
	SeatAvailable = "AVAILABLE"
	SeatReserved  = "RESERVED"
	SeatSold      = "SOLD"
)

// Seat is one bookable position within a screening. Seats are created once
// when the screening is provisioned and never destroyed; only the
// reservation coordinator changes their status.
//
// Fields:
//  ID          – primary key (UUID).
//  ScreeningID – screening this seat belongs to.
//  Label       – human-readable seat label, e.g. "A3". Unique per screening.
//  RowLabel    – row designator, e.g. "A".
//  Status      – AVAILABLE, RESERVED or SOLD.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Seat struct {
	ID          string    // seats.id
	ScreeningID string    // seats.screening_id
	Label       string    // seats.label
	RowLabel    string    // seats.row_label
	Status      string    // seats.status
	CreatedAt   time.Time // seats.created_at
	UpdatedAt   time.Time // seats.updated_at
}
