package repository

import (
	"github.com/rentledger/rentledger/internal/domain/activity"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	"github.com/rentledger/rentledger/internal/domain/lease"
	"github.com/rentledger/rentledger/internal/domain/payment"
	"github.com/rentledger/rentledger/internal/domain/unit"
	"github.com/rentledger/rentledger/internal/domain/user"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	postgresRepo "github.com/rentledger/rentledger/internal/repository/postgres"
)

func NewLeaseRepository(db *postgres.DB, logger *logger.Logger) lease.Repository {
	return postgresRepo.NewLeaseRepository(db, logger)
}

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewUnitRepository(db *postgres.DB, logger *logger.Logger) unit.Repository {
	return postgresRepo.NewUnitRepository(db, logger)
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return postgresRepo.NewUserRepository(db, logger)
}

func NewActivityRepository(db *postgres.DB, logger *logger.Logger) activity.Repository {
	return postgresRepo.NewActivityRepository(db, logger)
}
