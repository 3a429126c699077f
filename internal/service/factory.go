package service

import (
	"github.com/rentledger/rentledger/internal/config"
	"github.com/rentledger/rentledger/internal/domain/activity"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	"github.com/rentledger/rentledger/internal/domain/lease"
	"github.com/rentledger/rentledger/internal/domain/payment"
	"github.com/rentledger/rentledger/internal/domain/unit"
	"github.com/rentledger/rentledger/internal/domain/user"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	LeaseRepo    lease.Repository
	InvoiceRepo  invoice.Repository
	PaymentRepo  payment.Repository
	UnitRepo     unit.Repository
	UserRepo     user.Repository
	ActivityRepo activity.Repository
}

// NewServiceParams builds the common service dependency bundle
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	leaseRepo lease.Repository,
	invoiceRepo invoice.Repository,
	paymentRepo payment.Repository,
	unitRepo unit.Repository,
	userRepo user.Repository,
	activityRepo activity.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:       logger,
		Config:       config,
		DB:           db,
		LeaseRepo:    leaseRepo,
		InvoiceRepo:  invoiceRepo,
		PaymentRepo:  paymentRepo,
		UnitRepo:     unitRepo,
		UserRepo:     userRepo,
		ActivityRepo: activityRepo,
	}
}
