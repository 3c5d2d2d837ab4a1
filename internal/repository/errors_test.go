package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/cinepass/boxoffice/internal/fault"
)

func TestClassifyLockErrors(t *testing.T) {
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
	assert.Equal(t, fault.KindStoreConflict, fault.KindOf(classify(deadlock)))

	lockWait := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	assert.Equal(t, fault.KindStoreConflict, fault.KindOf(classify(lockWait)))

	// Wrapped driver errors classify the same way.
	wrapped := fmt.Errorf("query seats: %w", deadlock)
	assert.Equal(t, fault.KindStoreConflict, fault.KindOf(classify(wrapped)))
}

func TestClassifyConnectivity(t *testing.T) {
	assert.Equal(t, fault.KindStoreUnavailable, fault.KindOf(classify(driver.ErrBadConn)))
	assert.Equal(t, fault.KindStoreUnavailable, fault.KindOf(classify(mysql.ErrInvalidConn)))
}

func TestClassifyContext(t *testing.T) {
	assert.Equal(t, fault.KindTimeout, fault.KindOf(classify(context.DeadlineExceeded)))
	assert.Equal(t, fault.KindTimeout, fault.KindOf(classify(context.Canceled)))
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	// A constraint violation is not retryable and must keep its identity.
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	out := classify(dup)
	assert.Equal(t, fault.Kind(""), fault.KindOf(out))
	var me *mysql.MySQLError
	assert.True(t, errors.As(out, &me))

	plain := errors.New("plain")
	assert.Equal(t, plain, classify(plain))
	assert.NoError(t, classify(nil))
}
