package testutil

import (
	"context"

	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient is a mock implementation of postgres client for testing.
// Transactions degrade to plain function calls against in-memory stores.
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{logger: logger}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// WithTxRetry executes the given function once; in-memory stores never raise
// serialization conflicts
func (c *MockPostgresClient) WithTxRetry(ctx context.Context, maxAttempts int, fn func(context.Context) error) error {
	return fn(ctx)
}
