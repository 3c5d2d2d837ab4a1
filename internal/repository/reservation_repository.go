package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinepass/boxoffice/internal/fault"
	"github.com/cinepass/boxoffice/internal/model"
)

// ReservationWithSeat joins a reservation with the seat it holds.
type ReservationWithSeat struct {
	Reservation model.Reservation
	Seat        model.Seat
}

// ReservationDetail additionally carries the seat's screening, loaded when
// confirming a payment (the sale needs the ticket price and the response
// needs movie and room).
type ReservationDetail struct {
	Reservation model.Reservation
	Seat        model.Seat
	Screening   model.Screening
}

// ReservationRepo provides data access to the reservations table.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the provided database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `r.id, r.seat_id, r.user_id, r.status, r.expires_at, r.created_at, r.updated_at`
const seatColumns = `s.id, s.screening_id, s.label, s.row_label, s.status, s.created_at, s.updated_at`

func scanReservationWithSeat(row interface{ Scan(...any) error }) (*ReservationWithSeat, error) {
	var rw ReservationWithSeat
	err := row.Scan(
		&rw.Reservation.ID, &rw.Reservation.SeatID, &rw.Reservation.UserID,
		&rw.Reservation.Status, &rw.Reservation.ExpiresAt,
		&rw.Reservation.CreatedAt, &rw.Reservation.UpdatedAt,
		&rw.Seat.ID, &rw.Seat.ScreeningID, &rw.Seat.Label, &rw.Seat.RowLabel,
		&rw.Seat.Status, &rw.Seat.CreatedAt, &rw.Seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rw, nil
}

// InsertTx inserts a reservation. Timestamps default in the database.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (id, seat_id, user_id, status, expires_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, res.ID, res.SeatID, res.UserID, res.Status, res.ExpiresAt.UTC()); err != nil {
		return classify(err)
	}
	return nil
}

// GetForUpdateTx fetches a reservation joined with its seat and locks both
// rows exclusively. Returns KindNotFound when the reservation does not
// exist; the expire path treats that as benign.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, reservationID string) (*ReservationWithSeat, error) {
	const q = `SELECT ` + reservationColumns + `, ` + seatColumns + `
	           FROM reservations r
	           JOIN seats s ON s.id = r.seat_id
	           WHERE r.id = ?
	           FOR UPDATE`
	rw, err := scanReservationWithSeat(tx.QueryRowContext(ctx, q, reservationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "Reservation %s not found", reservationID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return rw, nil
}

// GetForUpdateByUserTx fetches a reservation joined with its seat and the
// seat's screening, constrained to the given user, locking the reservation
// and seat rows. A reservation owned by another user is indistinguishable
// from a missing one: both return KindNotFound.
func (r *ReservationRepo) GetForUpdateByUserTx(ctx context.Context, tx *sql.Tx, reservationID, userID string) (*ReservationDetail, error) {
	const q = `SELECT ` + reservationColumns + `, ` + seatColumns + `,
	                  sc.id, sc.movie_name, sc.start_time, sc.room_number,
	                  sc.ticket_price_cents, sc.is_active, sc.created_at, sc.updated_at
	           FROM reservations r
	           JOIN seats s ON s.id = r.seat_id
	           JOIN screenings sc ON sc.id = s.screening_id
	           WHERE r.id = ? AND r.user_id = ?
	           FOR UPDATE`
	var d ReservationDetail
	err := tx.QueryRowContext(ctx, q, reservationID, userID).Scan(
		&d.Reservation.ID, &d.Reservation.SeatID, &d.Reservation.UserID,
		&d.Reservation.Status, &d.Reservation.ExpiresAt,
		&d.Reservation.CreatedAt, &d.Reservation.UpdatedAt,
		&d.Seat.ID, &d.Seat.ScreeningID, &d.Seat.Label, &d.Seat.RowLabel,
		&d.Seat.Status, &d.Seat.CreatedAt, &d.Seat.UpdatedAt,
		&d.Screening.ID, &d.Screening.MovieName, &d.Screening.StartTime,
		&d.Screening.RoomNumber, &d.Screening.TicketPriceCents,
		&d.Screening.IsActive, &d.Screening.CreatedAt, &d.Screening.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "Reservation %s not found", reservationID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &d, nil
}

// LockPendingSiblingsTx fetches and locks every PENDING reservation in the
// booking group identified by {userID, screeningID, expiresAt}, the target
// included. Stable order (reservation id) keeps lock acquisition
// deterministic across concurrent confirms.
func (r *ReservationRepo) LockPendingSiblingsTx(ctx context.Context, tx *sql.Tx, userID, screeningID string, expiresAt time.Time) ([]ReservationWithSeat, error) {
	const q = `SELECT ` + reservationColumns + `, ` + seatColumns + `
	           FROM reservations r
	           JOIN seats s ON s.id = r.seat_id
	           WHERE r.user_id = ? AND s.screening_id = ? AND r.expires_at = ? AND r.status = ?
	           ORDER BY r.id
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, userID, screeningID, expiresAt.UTC(), model.ReservationPending)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []ReservationWithSeat
	for rows.Next() {
		rw, err := scanReservationWithSeat(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, *rw)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// UpdateStatusTx sets the status of a reservation. The caller must hold the
// reservation's row lock and have checked the transition is legal.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, reservationID, status string) error {
	const q = `UPDATE reservations SET status = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, status, reservationID); err != nil {
		return classify(err)
	}
	return nil
}

// ListOverduePendingIDs returns up to limit reservation IDs that are still
// PENDING past their deadline. Used by the backstop sweeper; a plain read,
// the sweeper re-checks under lock through the expire path.
func (r *ReservationRepo) ListOverduePendingIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const q = `SELECT id FROM reservations
	           WHERE status = ? AND expires_at < ?
	           ORDER BY expires_at
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, model.ReservationPending, now.UTC(), limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

// UserReservation is one row of a user's reservation listing.
type UserReservation struct {
	ID        string    `json:"id"`
	SeatLabel string    `json:"seat_label"`
	MovieName string    `json:"movie_name"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ListByUser returns the user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]UserReservation, error) {
	const q = `SELECT r.id, s.label, sc.movie_name, r.status, r.expires_at, r.created_at
	           FROM reservations r
	           JOIN seats s ON s.id = r.seat_id
	           JOIN screenings sc ON sc.id = s.screening_id
	           WHERE r.user_id = ?
	           ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []UserReservation
	for rows.Next() {
		var ur UserReservation
		if err := rows.Scan(&ur.ID, &ur.SeatLabel, &ur.MovieName, &ur.Status, &ur.ExpiresAt, &ur.CreatedAt); err != nil {
			return nil, classify(err)
		}
		out = append(out, ur)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
