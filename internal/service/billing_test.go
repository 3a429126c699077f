package service

import (
	"testing"
	"time"

	"github.com/rentledger/rentledger/internal/api/dto"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	"github.com/rentledger/rentledger/internal/domain/lease"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/testutil"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BillingService
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewBillingService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		LeaseRepo:    stores.LeaseRepo,
		InvoiceRepo:  stores.InvoiceRepo,
		PaymentRepo:  stores.PaymentRepo,
		UnitRepo:     stores.UnitRepo,
		UserRepo:     stores.UserRepo,
		ActivityRepo: stores.ActivityRepo,
	})
}

func (s *BillingServiceSuite) createLease(unitID string, status types.LeaseStatus, rent decimal.Decimal, start time.Time) *lease.Lease {
	l := &lease.Lease{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEASE),
		PropertyID:      "prop_1",
		UnitID:          unitID,
		TenantUserID:    "user_1",
		LeaseStatus:     status,
		StartDate:       start,
		EndDate:         start.AddDate(1, 0, 0),
		RentAmount:      rent,
		DueDayOfMonth:   5,
		BillingCurrency: "usd",
		Version:         1,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().LeaseRepo.Create(s.GetContext(), l))
	return l
}

func (s *BillingServiceSuite) listInvoicesForLease(leaseID string) []*invoice.Invoice {
	filter := types.NewNoLimitInvoiceFilter()
	filter.LeaseID = leaseID
	invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), filter)
	s.NoError(err)
	return invoices
}

func (s *BillingServiceSuite) TestBatchGenerateInvoices() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l1 := s.createLease("unit_1", types.LeaseStatusActive, rent, start)
	l2 := s.createLease("unit_2", types.LeaseStatusActive, rent, start)
	l3 := s.createLease("unit_3", types.LeaseStatusActive, rent, start)
	draft := s.createLease("unit_4", types.LeaseStatusDraft, rent, start)

	resp, err := s.service.BatchGenerateInvoices(s.GetContext(), &dto.BatchGenerateInvoicesRequest{
		PeriodStart: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Equal(3, resp.Generated)
	s.Equal(0, resp.Skipped)
	s.Empty(resp.Errors)

	for _, l := range []*lease.Lease{l1, l2, l3} {
		invoices := s.listInvoicesForLease(l.ID)
		s.Len(invoices, 1)

		inv := invoices[0]
		s.Equal(types.InvoiceStatusIssued, inv.InvoiceStatus)
		s.Equal(types.GenerateInvoiceNumber(l.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)), inv.InvoiceNumber)
		s.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), inv.IssueDate)
		s.Equal(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), inv.DueDate)
		s.True(inv.TotalAmount.Equal(rent))
		s.True(inv.BalanceAmount.Equal(rent))
		s.Len(inv.LineItems, 1)
		s.Equal("Monthly rent", inv.LineItems[0].Description)
	}

	// the draft lease is never billed
	s.Empty(s.listInvoicesForLease(draft.ID))
}

func (s *BillingServiceSuite) TestBatchGenerateInvoicesIdempotent() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, unitID := range []string{"unit_1", "unit_2", "unit_3"} {
		s.createLease(unitID, types.LeaseStatusActive, rent, start)
	}

	req := &dto.BatchGenerateInvoicesRequest{
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	first, err := s.service.BatchGenerateInvoices(s.GetContext(), req)
	s.NoError(err)
	s.Equal(3, first.Generated)
	s.Equal(0, first.Skipped)

	second, err := s.service.BatchGenerateInvoices(s.GetContext(), req)
	s.NoError(err)
	s.Equal(0, second.Generated)
	s.Equal(3, second.Skipped)
	s.Empty(second.Errors)
}

func (s *BillingServiceSuite) TestBatchDueDayOverride() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := s.createLease("unit_1", types.LeaseStatusActive, rent, start)

	resp, err := s.service.BatchGenerateInvoices(s.GetContext(), &dto.BatchGenerateInvoicesRequest{
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDay:      15,
	})
	s.NoError(err)
	s.Equal(1, resp.Generated)

	invoices := s.listInvoicesForLease(l.ID)
	s.Len(invoices, 1)
	// the run's due day wins over the lease's own due day of 5
	s.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), invoices[0].DueDate)
}

func (s *BillingServiceSuite) TestBatchDueDayOutOfRange() {
	_, err := s.service.BatchGenerateInvoices(s.GetContext(), &dto.BatchGenerateInvoicesRequest{
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDay:      29,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceSuite) TestBatchFailureCountsSkipped() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	failing := s.createLease("unit_1", types.LeaseStatusActive, rent, start)
	healthy := s.createLease("unit_2", types.LeaseStatusActive, rent, start)

	// an invoice outside the March window already holds March's deterministic
	// number, so the failing lease's create collides without being skipped by
	// the period check
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	blocker := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		LeaseID:       failing.ID,
		InvoiceNumber: types.GenerateInvoiceNumber(failing.ID, march),
		InvoiceStatus: types.InvoiceStatusIssued,
		IssueDate:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
		Currency:      "usd",
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), blocker))

	resp, err := s.service.BatchGenerateInvoices(s.GetContext(), &dto.BatchGenerateInvoicesRequest{
		PeriodStart: march,
	})
	s.NoError(err)
	s.Equal(1, resp.Generated)
	s.Equal(1, resp.Skipped)
	s.Len(resp.Errors, 1)
	s.Equal(failing.ID, resp.Errors[0].LeaseID)
	s.Len(s.listInvoicesForLease(healthy.ID), 1)
}

func (s *BillingServiceSuite) TestBatchNormalizesPeriod() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := s.createLease("unit_1", types.LeaseStatusActive, rent, start)

	_, err := s.service.BatchGenerateInvoices(s.GetContext(), &dto.BatchGenerateInvoicesRequest{
		PeriodStart: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)

	// a second run for a different day of the same month is the same period
	resp, err := s.service.BatchGenerateInvoices(s.GetContext(), &dto.BatchGenerateInvoicesRequest{
		PeriodStart: time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Equal(0, resp.Generated)
	s.Equal(1, resp.Skipped)
	s.Len(s.listInvoicesForLease(l.ID), 1)
}

func (s *BillingServiceSuite) TestProratedFirstMonth() {
	// 3100 over July's 31 days is a 100/day rate; moving in on the 16th leaves
	// 16 billable days
	rent := decimal.NewFromInt(3100)
	moveIn := time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)
	l := s.createLease("unit_1", types.LeaseStatusActive, rent, moveIn)

	resp, err := s.service.BatchGenerateInvoices(s.GetContext(), &dto.BatchGenerateInvoicesRequest{
		PeriodStart: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Equal(1, resp.Generated)

	invoices := s.listInvoicesForLease(l.ID)
	s.Len(invoices, 1)
	s.True(invoices[0].TotalAmount.Equal(decimal.NewFromInt(1600)))
	s.Equal("Prorated rent", invoices[0].LineItems[0].Description)
}

func (s *BillingServiceSuite) TestFullMonthAfterMoveInMonth() {
	rent := decimal.NewFromInt(3100)
	moveIn := time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)
	l := s.createLease("unit_1", types.LeaseStatusActive, rent, moveIn)

	resp, err := s.service.BatchGenerateInvoices(s.GetContext(), &dto.BatchGenerateInvoicesRequest{
		PeriodStart: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Equal(1, resp.Generated)

	invoices := s.listInvoicesForLease(l.ID)
	s.Len(invoices, 1)
	s.True(invoices[0].TotalAmount.Equal(rent))
	s.Equal("Monthly rent", invoices[0].LineItems[0].Description)
}

func (s *BillingServiceSuite) TestGenerateLeaseInvoice() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := s.createLease("unit_1", types.LeaseStatusActive, rent, start)

	resp, err := s.service.GenerateLeaseInvoice(s.GetContext(), l.ID, &dto.GenerateLeaseInvoiceRequest{
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.Equal(l.ID, resp.LeaseID)
	s.Equal(types.InvoiceStatusIssued, resp.InvoiceStatus)
	s.True(resp.TotalAmount.Equal(rent))

	_, err = s.service.GenerateLeaseInvoice(s.GetContext(), l.ID, &dto.GenerateLeaseInvoiceRequest{
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *BillingServiceSuite) TestGenerateLeaseInvoiceInactiveLease() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := s.createLease("unit_1", types.LeaseStatusDraft, rent, start)

	_, err := s.service.GenerateLeaseInvoice(s.GetContext(), l.ID, &dto.GenerateLeaseInvoiceRequest{
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *BillingServiceSuite) TestMarkOverdueInvoices() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := s.createLease("unit_1", types.LeaseStatusActive, rent, start)

	// February's invoice came due in the past, March's is still current
	_, err := s.service.GenerateLeaseInvoice(s.GetContext(), l.ID, &dto.GenerateLeaseInvoiceRequest{
		PeriodStart: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	_, err = s.service.GenerateLeaseInvoice(s.GetContext(), l.ID, &dto.GenerateLeaseInvoiceRequest{
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)

	resp, err := s.service.MarkOverdueInvoices(s.GetContext(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Equal(1, resp.Marked)

	invoices := s.listInvoicesForLease(l.ID)
	s.Len(invoices, 2)
	byMonth := map[time.Month]types.InvoiceStatus{}
	for _, inv := range invoices {
		byMonth[inv.IssueDate.Month()] = inv.InvoiceStatus
	}
	s.Equal(types.InvoiceStatusOverdue, byMonth[time.February])
	s.Equal(types.InvoiceStatusIssued, byMonth[time.March])
}

func (s *BillingServiceSuite) TestMarkOverdueIsIdempotent() {
	rent := decimal.NewFromInt(45000)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := s.createLease("unit_1", types.LeaseStatusActive, rent, start)
	_, err := s.service.GenerateLeaseInvoice(s.GetContext(), l.ID, &dto.GenerateLeaseInvoiceRequest{
		PeriodStart: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)

	asOf := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	first, err := s.service.MarkOverdueInvoices(s.GetContext(), asOf)
	s.NoError(err)
	s.Equal(1, first.Marked)

	second, err := s.service.MarkOverdueInvoices(s.GetContext(), asOf)
	s.NoError(err)
	s.Equal(0, second.Marked)
}
