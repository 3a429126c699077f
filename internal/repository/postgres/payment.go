package postgres

import (
	"context"

	"github.com/rentledger/rentledger/internal/domain/payment"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

const paymentColumns = `
	id, lease_id, amount, currency,
	organization_id, status, created_at, updated_at, created_by, updated_by`

const allocationColumns = `
	id, payment_id, invoice_id, amount_applied,
	organization_id, status, created_at, updated_at, created_by, updated_by`

func (r *paymentRepository) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE id = :id AND organization_id = :organization_id AND status = :status`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment with ID %s was not found", id).
			WithReportableDetails(map[string]any{"payment_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var p payment.Payment
	if err := rows.StructScan(&p); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *paymentRepository) CreateAllocation(ctx context.Context, allocation *payment.Allocation) error {
	query := `
		INSERT INTO payment_allocations (` + allocationColumns + `
		) VALUES (
			:id, :payment_id, :invoice_id, :amount_applied,
			:organization_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating payment allocation",
		"allocation_id", allocation.ID,
		"payment_id", allocation.PaymentID,
		"invoice_id", allocation.InvoiceID,
	)

	_, err := r.db.NamedExecContext(ctx, query, allocation)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create payment allocation").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) ListAllocationsByInvoice(ctx context.Context, invoiceID string) ([]*payment.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM payment_allocations
		WHERE invoice_id = :invoice_id
		AND organization_id = :organization_id
		AND status = :status
		ORDER BY created_at ASC`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"invoice_id":      invoiceID,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payment allocations").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var allocations []*payment.Allocation
	for rows.Next() {
		var a payment.Allocation
		if err := rows.StructScan(&a); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan payment allocation").
				Mark(ierr.ErrDatabase)
		}
		allocations = append(allocations, &a)
	}
	return allocations, nil
}

func (r *paymentRepository) CountAllocationsByInvoice(ctx context.Context, invoiceID string) (int, error) {
	query := `SELECT COUNT(*) FROM payment_allocations
		WHERE invoice_id = :invoice_id
		AND organization_id = :organization_id
		AND status = :status`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"invoice_id":      invoiceID,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count payment allocations").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan allocation count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}

func (r *paymentRepository) SumAllocationsByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount_applied), 0) FROM payment_allocations
		WHERE invoice_id = :invoice_id
		AND organization_id = :organization_id
		AND status = :status`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"invoice_id":      invoiceID,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to sum payment allocations").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	total := decimal.Zero
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return decimal.Zero, ierr.WithError(err).
				WithHint("Failed to scan allocation sum").
				Mark(ierr.ErrDatabase)
		}
	}
	return total, nil
}
