// Package repository is the only path by which the coordinator touches
// durable state. Every mutating method runs inside a caller-owned
// transaction and every row fetch used for a state transition acquires an
// exclusive lock held until the transaction ends.
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/cinepass/boxoffice/internal/fault"
)

// MySQL server error numbers that surface lock contention.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// classify maps a driver-level error onto the fault taxonomy. Deadlocks and
// lock wait timeouts become retryable store conflicts; connectivity loss
// becomes store-unavailable; context expiry becomes a timeout. Anything else
// is passed through untouched so callers can wrap it with their own kind.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
			return fault.Wrap(fault.KindStoreConflict, err, "store conflict")
		}
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return fault.Wrap(fault.KindStoreUnavailable, err, "store unavailable")
	}
	// Context errors are checked before net.Error: context.DeadlineExceeded
	// implements net.Error and would otherwise read as lost connectivity.
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindTimeout, err, "operation deadline exceeded")
	}
	if errors.Is(err, context.Canceled) {
		return fault.Wrap(fault.KindTimeout, err, "operation cancelled")
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return fault.Wrap(fault.KindStoreUnavailable, err, "store unavailable")
	}
	return err
}
