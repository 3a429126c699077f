package service

import (
	"testing"
	"time"

	"github.com/rentledger/rentledger/internal/api/dto"
	"github.com/rentledger/rentledger/internal/domain/lease"
	"github.com/rentledger/rentledger/internal/domain/payment"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/testutil"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service InvoiceService
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewInvoiceService(ServiceParams{
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

func (s *InvoiceServiceSuite) createLease(status types.LeaseStatus) *lease.Lease {
	l := &lease.Lease{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEASE),
		PropertyID:      "prop_1",
		UnitID:          "unit_1",
		TenantUserID:    "user_1",
		LeaseStatus:     status,
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		RentAmount:      decimal.NewFromInt(45000),
		DueDayOfMonth:   5,
		BillingCurrency: "usd",
		Version:         1,
		BaseModel:       types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().LeaseRepo.Create(s.GetContext(), l))
	return l
}

func (s *InvoiceServiceSuite) newCreateRequest(leaseID string) *dto.CreateInvoiceRequest {
	return &dto.CreateInvoiceRequest{
		LeaseID:   leaseID,
		IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		LineItems: []dto.CreateInvoiceLineItemRequest{
			{
				Description: "Monthly rent",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(45000),
			},
		},
	}
}

func (s *InvoiceServiceSuite) createDraftInvoice() *dto.InvoiceResponse {
	l := s.createLease(types.LeaseStatusActive)
	resp, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest(l.ID))
	s.NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	resp := s.createDraftInvoice()

	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Len(resp.LineItems, 1)
	s.True(resp.SubtotalAmount.Equal(decimal.NewFromInt(45000)))
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(45000)))
	s.True(resp.BalanceAmount.Equal(decimal.NewFromInt(45000)))
	s.Equal("usd", resp.Currency)
	s.Contains(resp.InvoiceNumber, "INV-202503-")
}

func (s *InvoiceServiceSuite) TestCreateInvoiceWithTax() {
	l := s.createLease(types.LeaseStatusActive)
	req := s.newCreateRequest(l.ID)
	req.TaxAmount = decimal.NewFromFloat(2250.50)

	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	s.True(resp.TotalAmount.Equal(decimal.NewFromFloat(47250.50)))
	s.True(resp.BalanceAmount.Equal(decimal.NewFromFloat(47250.50)))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceCancelledLease() {
	l := s.createLease(types.LeaseStatusCancelled)

	_, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest(l.ID))
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceDueBeforeIssue() {
	l := s.createLease(types.LeaseStatusActive)
	req := s.newCreateRequest(l.ID)
	req.DueDate = req.IssueDate.AddDate(0, 0, -1)

	_, err := s.service.CreateInvoice(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestCreateDuplicateInvoiceNumber() {
	l := s.createLease(types.LeaseStatusActive)
	_, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest(l.ID))
	s.NoError(err)

	// the deterministic number for the same lease and month collides
	_, err = s.service.CreateInvoice(s.GetContext(), s.newCreateRequest(l.ID))
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceWithCallerNumber() {
	l := s.createLease(types.LeaseStatusActive)
	req := s.newCreateRequest(l.ID)
	req.InvoiceNumber = "INV-2025-CUSTOM-1"

	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	s.Equal("INV-2025-CUSTOM-1", resp.InvoiceNumber)

	// a caller number frees the same lease and month for a second invoice
	second, err := s.service.CreateInvoice(s.GetContext(), s.newCreateRequest(l.ID))
	s.NoError(err)
	s.Contains(second.InvoiceNumber, "INV-202503-")
}

func (s *InvoiceServiceSuite) TestCreateInvoiceDuplicateCallerNumber() {
	l := s.createLease(types.LeaseStatusActive)
	req := s.newCreateRequest(l.ID)
	req.InvoiceNumber = "INV-2025-CUSTOM-1"
	_, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)

	other := s.newCreateRequest(l.ID)
	other.InvoiceNumber = "INV-2025-CUSTOM-1"
	other.IssueDate = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	other.DueDate = time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)
	_, err = s.service.CreateInvoice(s.GetContext(), other)
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *InvoiceServiceSuite) TestAddInvoiceItem() {
	resp := s.createDraftInvoice()

	updated, err := s.service.AddInvoiceItem(s.GetContext(), resp.ID, &dto.CreateInvoiceLineItemRequest{
		Description: "Parking",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromInt(1200),
	})
	s.NoError(err)
	s.Len(updated.LineItems, 2)
	s.True(updated.SubtotalAmount.Equal(decimal.NewFromInt(47400)))
	s.True(updated.TotalAmount.Equal(decimal.NewFromInt(47400)))
	s.True(updated.BalanceAmount.Equal(decimal.NewFromInt(47400)))
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceItem() {
	resp := s.createDraftInvoice()
	itemID := resp.LineItems[0].ID

	price := decimal.NewFromInt(46000)
	updated, err := s.service.UpdateInvoiceItem(s.GetContext(), resp.ID, itemID, &dto.UpdateInvoiceLineItemRequest{
		UnitPrice: &price,
	})
	s.NoError(err)
	s.True(updated.SubtotalAmount.Equal(price))
	s.True(updated.LineItems[0].LineTotal.Equal(price))
}

func (s *InvoiceServiceSuite) TestUpdateUnknownInvoiceItem() {
	resp := s.createDraftInvoice()

	qty := decimal.NewFromInt(2)
	_, err := s.service.UpdateInvoiceItem(s.GetContext(), resp.ID, "inv_line_missing", &dto.UpdateInvoiceLineItemRequest{
		Quantity: &qty,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestRemoveInvoiceItem() {
	resp := s.createDraftInvoice()
	updated, err := s.service.AddInvoiceItem(s.GetContext(), resp.ID, &dto.CreateInvoiceLineItemRequest{
		Description: "Parking",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(1200),
	})
	s.NoError(err)

	final, err := s.service.RemoveInvoiceItem(s.GetContext(), updated.ID, updated.LineItems[1].ID)
	s.NoError(err)
	s.Len(final.LineItems, 1)
	s.True(final.SubtotalAmount.Equal(decimal.NewFromInt(45000)))
}

func (s *InvoiceServiceSuite) TestIssueInvoice() {
	resp := s.createDraftInvoice()

	issued, err := s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusIssued, issued.InvoiceStatus)
	s.Len(issued.StatusNotes(), 1)
}

func (s *InvoiceServiceSuite) TestIssueEmptyInvoice() {
	l := s.createLease(types.LeaseStatusActive)
	req := s.newCreateRequest(l.ID)
	req.LineItems = nil
	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)

	_, err = s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestIssuedInvoiceItemsLocked() {
	resp := s.createDraftInvoice()
	_, err := s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.NoError(err)

	_, err = s.service.AddInvoiceItem(s.GetContext(), resp.ID, &dto.CreateInvoiceLineItemRequest{
		Description: "Parking",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(1200),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	notes := "late edit"
	_, err = s.service.UpdateInvoice(s.GetContext(), resp.ID, &dto.UpdateInvoiceRequest{Notes: &notes})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestNoBackwardStatusTransitions() {
	resp := s.createDraftInvoice()
	_, err := s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.NoError(err)

	_, err = s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusDraft,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestManualPaidWithOpenBalance() {
	resp := s.createDraftInvoice()
	_, err := s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.NoError(err)

	_, err = s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusPaid,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestManualOverdueBeforeDueDate() {
	l := s.createLease(types.LeaseStatusActive)
	req := s.newCreateRequest(l.ID)
	req.IssueDate = time.Now().UTC()
	req.DueDate = req.IssueDate.AddDate(0, 0, 30)
	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.NoError(err)
	_, err = s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.NoError(err)

	_, err = s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusOverdue,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestVoidDraftInvoice() {
	resp := s.createDraftInvoice()

	voided, err := s.service.VoidInvoice(s.GetContext(), resp.ID, &dto.VoidInvoiceRequest{
		Reason: "entered in error",
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusVoid, voided.InvoiceStatus)
	s.True(voided.BalanceAmount.IsZero())

	notes := voided.StatusNotes()
	s.Len(notes, 1)
	s.Equal("entered in error", notes[0].Reason)
}

func (s *InvoiceServiceSuite) TestVoidInvoiceWithAllocations() {
	resp := s.createDraftInvoice()
	_, err := s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.NoError(err)

	allocation := &payment.Allocation{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_ALLOCATION),
		PaymentID:     "pay_1",
		InvoiceID:     resp.ID,
		AmountApplied: decimal.NewFromInt(100),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PaymentRepo.CreateAllocation(s.GetContext(), allocation))

	_, err = s.service.VoidInvoice(s.GetContext(), resp.ID, &dto.VoidInvoiceRequest{
		Reason: "tenant dispute",
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestVoidIsTerminal() {
	resp := s.createDraftInvoice()
	_, err := s.service.VoidInvoice(s.GetContext(), resp.ID, &dto.VoidInvoiceRequest{Reason: "duplicate"})
	s.NoError(err)

	_, err = s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestUpdateDraftInvoice() {
	resp := s.createDraftInvoice()

	tax := decimal.NewFromInt(500)
	updated, err := s.service.UpdateInvoice(s.GetContext(), resp.ID, &dto.UpdateInvoiceRequest{
		TaxAmount: &tax,
	})
	s.NoError(err)
	s.True(updated.TaxAmount.Equal(tax))
	s.True(updated.TotalAmount.Equal(decimal.NewFromInt(45500)))
	s.True(updated.BalanceAmount.Equal(decimal.NewFromInt(45500)))
}

func (s *InvoiceServiceSuite) TestListInvoicesByStatus() {
	resp := s.createDraftInvoice()
	_, err := s.service.ChangeInvoiceStatus(s.GetContext(), resp.ID, &dto.ChangeInvoiceStatusRequest{
		InvoiceStatus: types.InvoiceStatusIssued,
	})
	s.NoError(err)

	filter := types.NewInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusIssued}
	list, err := s.service.ListInvoices(s.GetContext(), filter)
	s.NoError(err)
	s.Len(list.Items, 1)
	s.Equal(resp.ID, list.Items[0].ID)

	filter = types.NewInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusDraft}
	list, err = s.service.ListInvoices(s.GetContext(), filter)
	s.NoError(err)
	s.Len(list.Items, 0)
}
