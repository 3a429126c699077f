package testutil

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/config"
	"github.com/rentledger/rentledger/internal/domain/activity"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	"github.com/rentledger/rentledger/internal/domain/lease"
	"github.com/rentledger/rentledger/internal/domain/payment"
	"github.com/rentledger/rentledger/internal/domain/unit"
	"github.com/rentledger/rentledger/internal/domain/user"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/rentledger/rentledger/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	LeaseRepo    lease.Repository
	InvoiceRepo  invoice.Repository
	PaymentRepo  payment.Repository
	UnitRepo     unit.Repository
	UserRepo     user.Repository
	ActivityRepo activity.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     postgres.IClient
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	// Initialize validator
	validator.NewValidator()

	// Initialize logger with test config
	cfg := &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
		Billing: config.BillingConfig{
			Workers:       8,
			RetryAttempts: 3,
		},
	}
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		LeaseRepo:    NewInMemoryLeaseStore(),
		InvoiceRepo:  NewInMemoryInvoiceStore(),
		PaymentRepo:  NewInMemoryPaymentStore(),
		UnitRepo:     NewInMemoryUnitStore(),
		UserRepo:     NewInMemoryUserStore(),
		ActivityRepo: NewInMemoryActivityStore(),
	}
	s.db = NewMockPostgresClient(s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.LeaseRepo.(*InMemoryLeaseStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.stores.UnitRepo.(*InMemoryUnitStore).Clear()
	s.stores.UserRepo.(*InMemoryUserStore).Clear()
	s.stores.ActivityRepo.(*InMemoryActivityStore).Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
