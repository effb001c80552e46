// Package apperr defines the error taxonomy shared by the store, service,
// and API layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a legacy-id or row lookup miss. Handlers translate
	// it into a 404-class response; it is never a server fault.
	ErrNotFound = errors.New("not found")

	// ErrValidation signals caller-supplied data that fails a precondition.
	ErrValidation = errors.New("validation failed")
)

// BusyError is returned after the retry wrapper exhausts its attempts on a
// transient database-locked condition.
type BusyError struct {
	Attempts int
	Err      error
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("database busy after %d attempts: %v", e.Attempts, e.Err)
}

func (e *BusyError) Unwrap() error { return e.Err }

// IsBusy reports whether err is a retry-exhausted busy error.
func IsBusy(err error) bool {
	var be *BusyError
	return errors.As(err, &be)
}

// IntegrityError is raised by the migration pipeline when a post-load
// verification check fails.
type IntegrityError struct {
	Check    string
	Got      int
	Expected int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check %q failed: got %d, expected %d", e.Check, e.Got, e.Expected)
}
