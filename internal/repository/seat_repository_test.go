package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinepass/boxoffice/internal/fault"
	"github.com/cinepass/boxoffice/internal/model"
)

var seatCols = []string{"id", "screening_id", "label", "row_label", "status", "created_at", "updated_at"}

func TestGetForUpdateTxLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM seats\\s+WHERE screening_id = \\? AND label = \\?\\s+FOR UPDATE").
		WithArgs("scr-1", "A3").
		WillReturnRows(sqlmock.NewRows(seatCols).
			AddRow("seat-1", "scr-1", "A3", "A", model.SeatAvailable, now, now))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	seat, err := NewSeatRepo(db).GetForUpdateTx(context.Background(), tx, "scr-1", "A3")
	require.NoError(t, err)
	assert.Equal(t, "seat-1", seat.ID)
	assert.Equal(t, model.SeatAvailable, seat.Status)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdateTxNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM seats").
		WithArgs("scr-1", "Z9").
		WillReturnRows(sqlmock.NewRows(seatCols))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	_, err = NewSeatRepo(db).GetForUpdateTx(context.Background(), tx, "scr-1", "Z9")
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
	assert.Contains(t, fault.Message(err), "Seat Z9 not found")

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRollbackAfterCommitIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	sess, err := NewStore(db).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Commit())
	assert.NoError(t, sess.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
