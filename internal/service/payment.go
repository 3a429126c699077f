package service

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/api/dto"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	"github.com/rentledger/rentledger/internal/domain/payment"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/samber/lo"
)

// PaymentService applies payments to invoices. An allocation locks the target
// invoice row, re-derives the balance from the full allocation history, and
// moves the invoice to partially paid or paid from the new balance. The whole
// operation runs in a retried transaction so concurrent allocations against
// the same invoice serialize instead of failing.
type PaymentService interface {
	AllocatePayment(ctx context.Context, req *dto.AllocatePaymentRequest) (*dto.AllocationResponse, error)
	ListInvoiceAllocations(ctx context.Context, invoiceID string) (*dto.ListAllocationsResponse, error)
}

type paymentService struct {
	ServiceParams
	activityService ActivityService
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams:   params,
		activityService: NewActivityService(params),
	}
}

// invoiceStatusesAllocatable are the statuses an allocation may land on
var invoiceStatusesAllocatable = []types.InvoiceStatus{
	types.InvoiceStatusIssued,
	types.InvoiceStatusPartiallyPaid,
	types.InvoiceStatusOverdue,
}

func (s *paymentService) AllocatePayment(ctx context.Context, req *dto.AllocatePaymentRequest) (*dto.AllocationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var allocation *payment.Allocation
	var invoiceStatus types.InvoiceStatus
	var invoiceBalance = req.Amount

	err := s.DB.WithTxRetry(ctx, s.Config.Billing.RetryAttempts, func(ctx context.Context) error {
		p, err := s.PaymentRepo.GetPayment(ctx, req.PaymentID)
		if err != nil {
			return err
		}

		inv, err := s.InvoiceRepo.GetForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		if !lo.Contains(invoiceStatusesAllocatable, inv.InvoiceStatus) {
			return ierr.NewError("invoice cannot receive allocations").
				WithHintf("Invoice in status %s cannot be paid against", inv.InvoiceStatus).
				WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
				Mark(ierr.ErrInvalidOperation)
		}

		if p.Currency != inv.Currency {
			return ierr.NewError("payment currency mismatch").
				WithHintf("Payment is in %s but the invoice bills in %s", p.Currency, inv.Currency).
				WithReportableDetails(map[string]any{
					"payment_currency": p.Currency,
					"invoice_currency": inv.Currency,
				}).
				Mark(ierr.ErrValidation)
		}

		if req.Amount.GreaterThan(p.Amount) {
			return ierr.NewError("allocation exceeds payment amount").
				WithHint("Cannot apply more than the payment holds").
				WithReportableDetails(map[string]any{
					"payment_amount": p.Amount,
					"amount":         req.Amount,
				}).
				Mark(ierr.ErrValidation)
		}

		allocated, err := s.PaymentRepo.SumAllocationsByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if allocated.Add(req.Amount).GreaterThan(inv.TotalAmount) {
			return ierr.NewError("allocation exceeds invoice total").
				WithHint("The invoice's allocations cannot exceed its total amount").
				WithReportableDetails(map[string]any{
					"total_amount":      inv.TotalAmount,
					"already_allocated": allocated,
					"amount":            req.Amount,
				}).
				Mark(ierr.ErrValidation)
		}

		allocation = &payment.Allocation{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_ALLOCATION),
			PaymentID:     p.ID,
			InvoiceID:     inv.ID,
			AmountApplied: req.Amount.Round(2),
			BaseModel:     types.GetDefaultBaseModel(ctx),
		}
		if err := allocation.Validate(); err != nil {
			return err
		}
		if err := s.PaymentRepo.CreateAllocation(ctx, allocation); err != nil {
			return err
		}

		newAllocated := allocated.Add(allocation.AmountApplied)
		inv.RecomputeTotals(newAllocated)

		target := types.InvoiceStatusPartiallyPaid
		if inv.BalanceAmount.IsZero() {
			target = types.InvoiceStatusPaid
		}
		if target != inv.InvoiceStatus {
			if !inv.InvoiceStatus.CanTransitionTo(target) {
				return ierr.NewError("invoice status transition not allowed").
					WithHintf("Cannot move invoice from %s to %s", inv.InvoiceStatus, target).
					Mark(ierr.ErrInvalidOperation)
			}
			inv.AppendStatusNote(invoice.StatusNote{
				From:   inv.InvoiceStatus,
				To:     target,
				Reason: "payment allocated",
				At:     time.Now().UTC(),
			})
			inv.InvoiceStatus = target
		}

		if err := inv.Validate(); err != nil {
			return err
		}
		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}

		invoiceStatus = inv.InvoiceStatus
		invoiceBalance = inv.BalanceAmount
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionPaymentAllocated, targetTableInvoices, req.InvoiceID,
		"payment allocated",
		nil,
		types.Metadata{
			"payment_id":     req.PaymentID,
			"amount_applied": allocation.AmountApplied.String(),
		})

	return &dto.AllocationResponse{
		Allocation:     allocation,
		InvoiceStatus:  invoiceStatus.String(),
		InvoiceBalance: invoiceBalance,
	}, nil
}

func (s *paymentService) ListInvoiceAllocations(ctx context.Context, invoiceID string) (*dto.ListAllocationsResponse, error) {
	if _, err := s.InvoiceRepo.Get(ctx, invoiceID); err != nil {
		return nil, err
	}

	allocations, err := s.PaymentRepo.ListAllocationsByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	total, err := s.PaymentRepo.SumAllocationsByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	return &dto.ListAllocationsResponse{
		Items: allocations,
		Total: total,
	}, nil
}
