// Package fault classifies errors into the kinds the booking core reasons
// about. Handlers translate kinds into HTTP statuses; the retry decorator
// uses them to decide whether an operation may be attempted again.
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies a failure class.
type Kind string

const (
	// KindNotFound marks a missing screening, seat or reservation. An
	// ownership mismatch is reported as KindNotFound as well so that the
	// caller cannot probe for reservations owned by other users.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict marks a state that refuses the operation: seat not
	// available, reservation not pending, reservation expired.
	KindConflict Kind = "CONFLICT"
	// KindInvalidRequest marks malformed input such as duplicate seat
	// labels or an empty label list.
	KindInvalidRequest Kind = "INVALID_REQUEST"
	// KindStoreConflict marks a deadlock, serialisation failure or lock
	// wait timeout in the store. Retryable.
	KindStoreConflict Kind = "STORE_CONFLICT"
	// KindStoreUnavailable marks lost store connectivity. Retryable.
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
	// KindBrokerUnavailable marks a failed publish or schedule. Post-commit
	// broker failures are logged, never surfaced to the caller.
	KindBrokerUnavailable Kind = "BROKER_UNAVAILABLE"
	// KindTimeout marks a caller deadline exceeded mid-operation.
	KindTimeout Kind = "TIMEOUT"
	// KindInvalidState marks detected corruption, e.g. a CONFIRMED
	// reservation without a sale.
	KindInvalidState Kind = "INVALID_STATE"
)

// Error carries a kind alongside a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Message returns the human-readable message of err when it is a fault
// Error, or err.Error() otherwise.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Msg
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// IsRetryable reports whether the failure may succeed on a fresh attempt.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindStoreConflict, KindStoreUnavailable:
		return true
	}
	return false
}
