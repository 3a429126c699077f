package service

import (
	"context"
	"sync"
	"time"

	"github.com/rentledger/rentledger/internal/api/dto"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	"github.com/rentledger/rentledger/internal/domain/lease"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

// BillingService generates rent invoices from active leases and sweeps issued
// invoices past their due date into overdue.
//
// Batch generation is idempotent per lease and billing month: a lease that
// already has an invoice whose issue date falls inside the month is skipped,
// and re-running a batch only fills in what the previous run missed. Each
// lease is processed in its own transaction, so one failing lease never
// aborts the rest of the batch.
type BillingService interface {
	BatchGenerateInvoices(ctx context.Context, req *dto.BatchGenerateInvoicesRequest) (*dto.BatchGenerateInvoicesResponse, error)
	GenerateLeaseInvoice(ctx context.Context, leaseID string, req *dto.GenerateLeaseInvoiceRequest) (*dto.InvoiceResponse, error)
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (*dto.MarkOverdueInvoicesResponse, error)
}

type billingService struct {
	ServiceParams
	activityService ActivityService
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams:   params,
		activityService: NewActivityService(params),
	}
}

// monthWindow normalizes any day within a billing month to the half-open
// range [first of month, first of next month)
func monthWindow(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (s *billingService) BatchGenerateInvoices(ctx context.Context, req *dto.BatchGenerateInvoicesRequest) (*dto.BatchGenerateInvoicesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	periodStart, _ := monthWindow(req.PeriodStart)
	runID := types.GenerateShortIDWithPrefix("RUN")

	filter := types.NewNoLimitLeaseFilter()
	filter.LeaseStatus = []types.LeaseStatus{types.LeaseStatusActive}
	leases, err := s.LeaseRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("starting batch invoice generation",
		"run_id", runID,
		"period_start", periodStart,
		"lease_count", len(leases),
		"workers", s.Config.Billing.Workers,
	)

	var mu sync.Mutex
	response := &dto.BatchGenerateInvoicesResponse{}

	workers := pool.New().WithMaxGoroutines(s.Config.Billing.Workers)
	for _, l := range leases {
		leaseID := l.ID
		workers.Go(func() {
			created, err := s.generateForLease(ctx, leaseID, periodStart, req.DueDay)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				s.Logger.Errorw("failed to generate invoice for lease",
					"lease_id", leaseID,
					"period_start", periodStart,
					"error", err,
				)
				response.Errors = append(response.Errors, dto.BatchGenerationError{
					LeaseID: leaseID,
					Message: err.Error(),
				})
				response.Skipped++
			case created:
				response.Generated++
			default:
				response.Skipped++
			}
		})
	}
	workers.Wait()

	s.Logger.Infow("batch invoice generation finished",
		"run_id", runID,
		"period_start", periodStart,
		"generated", response.Generated,
		"skipped", response.Skipped,
		"errors", len(response.Errors),
	)

	s.activityService.Log(ctx, types.ActivityActionInvoicesGenerated, targetTableInvoices, periodStart.Format("2006-01"),
		"batch invoice generation", nil, types.Metadata{
			"run_id":    runID,
			"generated": decimal.NewFromInt(int64(response.Generated)).String(),
			"skipped":   decimal.NewFromInt(int64(response.Skipped)).String(),
		})

	return response, nil
}

// generateForLease creates one rent invoice for the lease and month, inside a
// retried transaction. dueDay overrides the lease's own due day when nonzero.
// Returns false with a nil error when the lease already has an invoice for
// the month.
func (s *billingService) generateForLease(ctx context.Context, leaseID string, periodStart time.Time, dueDay int) (bool, error) {
	created := false
	err := s.DB.WithTxRetry(ctx, s.Config.Billing.RetryAttempts, func(ctx context.Context) error {
		l, err := s.LeaseRepo.GetForUpdate(ctx, leaseID)
		if err != nil {
			return err
		}
		if l.LeaseStatus != types.LeaseStatusActive {
			return ierr.NewError("lease is not active").
				WithHintf("Only active leases are billed, lease is %s", l.LeaseStatus).
				WithReportableDetails(map[string]any{"lease_status": l.LeaseStatus}).
				Mark(ierr.ErrInvalidOperation)
		}

		periodEnd := periodStart.AddDate(0, 1, 0)
		exists, err := s.InvoiceRepo.ExistsForPeriod(ctx, l.ID, periodStart, periodEnd)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		inv := s.buildRentInvoice(ctx, l, periodStart, dueDay)
		if err := inv.Validate(); err != nil {
			return err
		}
		if err := s.InvoiceRepo.CreateWithLineItems(ctx, inv); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// buildRentInvoice assembles the month's rent invoice for a lease. The first
// partial month is prorated by calendar days at the month's daily rate; every
// other month bills the full rent. The invoice is issued immediately with its
// due date on the run's due-day override or the lease's own due day.
func (s *billingService) buildRentInvoice(ctx context.Context, l *lease.Lease, periodStart time.Time, dueDay int) *invoice.Invoice {
	periodEnd := periodStart.AddDate(0, 1, 0)
	daysInMonth := periodEnd.Sub(periodStart).Hours() / 24

	amount := l.RentAmount
	description := "Monthly rent"
	if l.StartDate.After(periodStart) && l.StartDate.Before(periodEnd) {
		dailyRate := l.RentAmount.Div(decimal.NewFromFloat(daysInMonth))
		daysRemaining := int(periodEnd.Sub(l.StartDate).Hours() / 24)
		amount = dailyRate.Mul(decimal.NewFromInt(int64(daysRemaining))).Round(2)
		description = "Prorated rent"
	}

	if dueDay == 0 {
		dueDay = l.DueDayOfMonth
	}
	dueDate := time.Date(periodStart.Year(), periodStart.Month(), dueDay, 0, 0, 0, 0, time.UTC)

	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		LeaseID:       l.ID,
		InvoiceNumber: types.GenerateInvoiceNumber(l.ID, periodStart),
		InvoiceStatus: types.InvoiceStatusIssued,
		IssueDate:     periodStart,
		DueDate:       dueDate,
		Currency:      l.BillingCurrency,
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	inv.LineItems = []*invoice.LineItem{
		invoice.NewLineItem(inv.ID, description, decimal.NewFromInt(1), amount, types.GetDefaultBaseModel(ctx)),
	}
	inv.RecomputeTotals(decimal.Zero)
	return inv
}

func (s *billingService) GenerateLeaseInvoice(ctx context.Context, leaseID string, req *dto.GenerateLeaseInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	periodStart, _ := monthWindow(req.PeriodStart)

	created, err := s.generateForLease(ctx, leaseID, periodStart, 0)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ierr.NewError("invoice already exists for period").
			WithHintf("Lease %s already has an invoice for %s", leaseID, periodStart.Format("2006-01")).
			WithReportableDetails(map[string]any{
				"lease_id":     leaseID,
				"period_start": periodStart,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	filter := types.NewInvoiceFilter()
	filter.LeaseID = leaseID
	filter.IssueDateFrom = &periodStart
	periodEnd := periodStart.AddDate(0, 1, 0)
	filter.IssueDateTo = &periodEnd
	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, ierr.NewError("generated invoice not found").
			WithHint("The invoice vanished between generation and readback").
			Mark(ierr.ErrSystem)
	}

	return dto.NewInvoiceResponse(invoices[0]), nil
}

func (s *billingService) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (*dto.MarkOverdueInvoicesResponse, error) {
	filter := types.NewNoLimitInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusIssued}
	filter.DueDateBefore = &asOf

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	response := &dto.MarkOverdueInvoicesResponse{}
	for _, candidate := range invoices {
		invoiceID := candidate.ID
		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			inv, err := s.InvoiceRepo.GetForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			// re-check under lock, the sweep list may be stale
			if inv.InvoiceStatus != types.InvoiceStatusIssued || !inv.DueDate.Before(asOf) {
				return nil
			}

			previous := inv.InvoiceStatus
			inv.InvoiceStatus = types.InvoiceStatusOverdue
			inv.AppendStatusNote(invoice.StatusNote{
				From:   previous,
				To:     types.InvoiceStatusOverdue,
				Reason: "past due date",
				At:     time.Now().UTC(),
			})
			if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
				return err
			}
			response.Marked++
			return nil
		})
		if err != nil {
			s.Logger.Errorw("failed to mark invoice overdue",
				"invoice_id", invoiceID,
				"error", err,
			)
		}
	}

	return response, nil
}
