package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinepass/boxoffice/internal/fault"
	"github.com/cinepass/boxoffice/internal/model"
)

// ScreeningRepo provides data access to the screenings table.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo returns a ScreeningRepo bound to the provided database.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo { return &ScreeningRepo{db: db} }

const screeningColumns = `id, movie_name, start_time, room_number, ticket_price_cents, is_active, created_at, updated_at`

func scanScreening(row *sql.Row) (*model.Screening, error) {
	var sc model.Screening
	err := row.Scan(&sc.ID, &sc.MovieName, &sc.StartTime, &sc.RoomNumber,
		&sc.TicketPriceCents, &sc.IsActive, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// GetActiveTx fetches an active screening inside the current transaction.
// No lock is taken: screenings are never mutated by the booking core, the
// row only anchors the hold to a real screening.
func (r *ScreeningRepo) GetActiveTx(ctx context.Context, tx *sql.Tx, id string) (*model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ? AND is_active = 1`
	sc, err := scanScreening(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "Screening %s not found", id)
	}
	if err != nil {
		return nil, classify(err)
	}
	return sc, nil
}

// GetByID fetches a screening outside any transaction.
func (r *ScreeningRepo) GetByID(ctx context.Context, id string) (*model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
	sc, err := scanScreening(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.New(fault.KindNotFound, "Screening %s not found", id)
	}
	if err != nil {
		return nil, classify(err)
	}
	return sc, nil
}

// List returns all active screenings ordered by start time.
func (r *ScreeningRepo) List(ctx context.Context) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE is_active = 1 ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.Screening
	for rows.Next() {
		var sc model.Screening
		if err := rows.Scan(&sc.ID, &sc.MovieName, &sc.StartTime, &sc.RoomNumber,
			&sc.TicketPriceCents, &sc.IsActive, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, classify(err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// CreateTx inserts a screening. Used by the provisioning endpoint.
func (r *ScreeningRepo) CreateTx(ctx context.Context, tx *sql.Tx, sc *model.Screening) error {
	const q = `INSERT INTO screenings (id, movie_name, start_time, room_number, ticket_price_cents, is_active)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, sc.ID, sc.MovieName, sc.StartTime.UTC(), sc.RoomNumber, sc.TicketPriceCents, sc.IsActive); err != nil {
		return classify(err)
	}
	return nil
}
