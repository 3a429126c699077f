package postgres

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	ierr "github.com/rentledger/rentledger/internal/errors"
)

const (
	// Postgres error codes treated as transient
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// IsSerializationError reports whether the error is a transient concurrency
// conflict worth retrying. Validation, not-found and conflict errors are
// permanent and must never be retried.
func IsSerializationError(err error) bool {
	var pqErr *pq.Error
	if !ierr.As(err, &pqErr) {
		return false
	}
	code := string(pqErr.Code)
	return code == pqSerializationFailure || code == pqDeadlockDetected
}

// WithTxRetry runs fn inside a transaction, retrying the whole transaction a
// bounded number of times when it fails with a serialization conflict. Each
// attempt gets a fresh transaction; business errors pass through untouched.
func (db *DB) WithTxRetry(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(50*time.Millisecond),
			backoff.WithMaxInterval(500*time.Millisecond),
		), uint64(maxAttempts-1)),
		ctx,
	)

	operation := func() error {
		err := db.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if IsSerializationError(err) {
			db.logger.Warnw("retrying transaction after serialization conflict",
				"error", err,
			)
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(operation, bo)
	var permanent *backoff.PermanentError
	if ierr.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
