package model

import "time"

// Screening is one scheduled showing of a movie in a specific room. It owns
// a fixed seat inventory created at provisioning time.
//
// Fields:
//  ID               – primary key (UUID).
//  MovieName        – title of the movie being shown.
//  StartTime        – when the screening begins.
//  RoomNumber       – room in which the screening takes place.
//  TicketPriceCents – price per seat in cents; uniform within a screening.
//  IsActive         – whether the screening accepts holds.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Screening struct {
	ID               string    // screenings.id
	MovieName        string    // screenings.movie_name
	StartTime        time.Time // screenings.start_time
	RoomNumber       uint32    // screenings.room_number
	TicketPriceCents uint32    // screenings.ticket_price_cents
	IsActive         bool      // screenings.is_active
	CreatedAt        time.Time // screenings.created_at
	UpdatedAt        time.Time // screenings.updated_at
}
