package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinepass/boxoffice/internal/model"
)

// SaleRepo provides data access to the append-only sales table.
type SaleRepo struct {
	db *sql.DB
}

// NewSaleRepo returns a SaleRepo bound to the provided database.
func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{db: db} }

// InsertTx inserts a sale. The unique key on reservation_id enforces one
// sale per reservation at the storage layer.
func (r *SaleRepo) InsertTx(ctx context.Context, tx *sql.Tx, s *model.Sale) error {
	const q = `INSERT INTO sales (id, seat_id, user_id, reservation_id, amount_cents, paid_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, s.ID, s.SeatID, s.UserID, s.ReservationID, s.AmountCents, s.PaidAt.UTC()); err != nil {
		return classify(err)
	}
	return nil
}

// GetByReservationTx looks up the sale belonging to a reservation inside the
// current transaction. Returns (nil, nil) when no sale exists; the confirm
// idempotency path decides how to react.
func (r *SaleRepo) GetByReservationTx(ctx context.Context, tx *sql.Tx, reservationID string) (*model.Sale, error) {
	const q = `SELECT id, seat_id, user_id, reservation_id, amount_cents, paid_at, created_at
	           FROM sales WHERE reservation_id = ?`
	var s model.Sale
	err := tx.QueryRowContext(ctx, q, reservationID).Scan(
		&s.ID, &s.SeatID, &s.UserID, &s.ReservationID, &s.AmountCents, &s.PaidAt, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

// UserPurchase is one row of a user's purchase history.
type UserPurchase struct {
	SaleID      string    `json:"sale_id"`
	SeatLabel   string    `json:"seat_label"`
	MovieName   string    `json:"movie_name"`
	RoomNumber  uint32    `json:"room_number"`
	AmountCents uint32    `json:"amount_cents"`
	PaidAt      time.Time `json:"paid_at"`
}

// ListByUser returns the user's purchases, newest first.
func (r *SaleRepo) ListByUser(ctx context.Context, userID string) ([]UserPurchase, error) {
	const q = `SELECT sl.id, s.label, sc.movie_name, sc.room_number, sl.amount_cents, sl.paid_at
	           FROM sales sl
	           JOIN seats s ON s.id = sl.seat_id
	           JOIN screenings sc ON sc.id = s.screening_id
	           WHERE sl.user_id = ?
	           ORDER BY sl.paid_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []UserPurchase
	for rows.Next() {
		var p UserPurchase
		if err := rows.Scan(&p.SaleID, &p.SeatLabel, &p.MovieName, &p.RoomNumber, &p.AmountCents, &p.PaidAt); err != nil {
			return nil, classify(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
