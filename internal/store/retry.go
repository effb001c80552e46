package store

import (
	"context"
	"errors"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/starford/raido/internal/apperr"
)

// RetryConfig bounds the busy-retry loop.
type RetryConfig struct {
	MaxRetries int           // retries after the initial attempt
	BaseDelay  time.Duration // doubled per retry
}

// DefaultRetryConfig matches the documented contract: 5 retries, 100ms base
// delay with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 5, BaseDelay: 100 * time.Millisecond}
}

// IsBusyErr reports whether err is a transient SQLITE_BUSY/SQLITE_LOCKED
// condition worth retrying.
func IsBusyErr(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "database is locked")
}

// WithRetry executes op, retrying on busy/locked errors with exponential
// backoff. Any other error propagates immediately. After exhausting retries
// it returns *apperr.BusyError carrying the retry count.
//
// op must be atomic on its own (a single statement, or a statement sequence
// already wrapped in a transaction); composing WithRetry over multi-statement
// non-transactional code risks partial re-application.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		if !IsBusyErr(err) {
			return zero, err
		}
		lastErr = err

		if attempt == cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}

	return zero, &apperr.BusyError{Attempts: cfg.MaxRetries, Err: lastErr}
}
