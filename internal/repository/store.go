package repository

import (
	"context"
	"database/sql"
)

// Store opens transactional sessions against the relational store. A session
// is the unit of atomicity: row locks taken inside it are held until Commit
// or Rollback.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for read-only queries that do not need a
// transaction.
func (s *Store) DB() *sql.DB { return s.db }

// Begin starts a session. Default isolation suffices: the exclusive row
// locks taken by the FOR UPDATE fetches do the serialising.
func (s *Store) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	return &Session{tx: tx}, nil
}

// Session is one open transaction. Every exit path must end in Commit or
// Rollback; Rollback after a successful Commit is a no-op, so callers can
// keep it in a defer.
type Session struct {
	tx   *sql.Tx
	done bool
}

// Tx exposes the transaction handle to the repositories.
func (s *Session) Tx() *sql.Tx { return s.tx }

// Commit commits the transaction, releasing all row locks.
func (s *Session) Commit() error {
	if err := s.tx.Commit(); err != nil {
		return classify(err)
	}
	s.done = true
	return nil
}

// Rollback aborts the transaction unless it already committed.
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return classify(err)
	}
	return nil
}
