package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinepass/boxoffice/internal/fault"
	"github.com/cinepass/boxoffice/internal/model"
)

// SeatRepo provides data access to the seats table.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// GetForUpdateTx fetches one seat by screening and label and acquires an
// exclusive row lock held until the transaction ends. Two transactions
// contending on the same seat serialise here: the second blocks until the
// first commits or rolls back, then observes the committed status.
func (r *SeatRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, screeningID, label string) (*model.Seat, error) {
	const q = `SELECT id, screening_id, label, row_label, status, created_at, updated_at
	           FROM seats
	           WHERE screening_id = ? AND label = ?
	           FOR UPDATE`
	var s model.Seat
	err := tx.QueryRowContext(ctx, q, screeningID, label).Scan(
		&s.ID, &s.ScreeningID, &s.Label, &s.RowLabel, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "Seat %s not found in screening %s", label, screeningID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

// UpdateStatusTx sets the status of a single seat. The caller must already
// hold the seat's row lock.
func (r *SeatRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, seatID, status string) error {
	const q = `UPDATE seats SET status = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, status, seatID); err != nil {
		return classify(err)
	}
	return nil
}

// CreateBulkTx inserts multiple seats in one statement. Used when a
// screening is provisioned; timestamps default in the database.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (id, screening_id, label, row_label, status) VALUES `
	args := make([]any, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.ID, s.ScreeningID, s.Label, s.RowLabel, s.Status)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classify(err)
	}
	return nil
}

// SeatAvailability is one row of the public availability listing.
type SeatAvailability struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	RowLabel string `json:"row"`
	Status   string `json:"status"`
}

// ListByScreening returns every seat of a screening ordered by label. A
// plain read outside any transaction; the listing is advisory and may be
// stale the moment it is returned.
func (r *SeatRepo) ListByScreening(ctx context.Context, screeningID string) ([]SeatAvailability, error) {
	const q = `SELECT id, label, row_label, status
	           FROM seats WHERE screening_id = ? ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, screeningID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []SeatAvailability
	for rows.Next() {
		var s SeatAvailability
		if err := rows.Scan(&s.ID, &s.Label, &s.RowLabel, &s.Status); err != nil {
			return nil, classify(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
