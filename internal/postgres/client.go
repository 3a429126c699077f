package postgres

import "context"

// IClient is the narrow surface services depend on for transaction control.
// It exists so that service tests can run against in-memory repositories with
// a no-op transaction runner.
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// WithTxRetry is WithTx plus bounded retry on serialization conflicts
	WithTxRetry(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error
}
