package service

import (
	"testing"
	"time"

	"github.com/rentledger/rentledger/internal/api/dto"
	"github.com/rentledger/rentledger/internal/domain/invoice"
	"github.com/rentledger/rentledger/internal/domain/unit"
	"github.com/rentledger/rentledger/internal/domain/user"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/testutil"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LeaseServiceSuite struct {
	testutil.BaseServiceTestSuite
	service LeaseService
}

func TestLeaseService(t *testing.T) {
	suite.Run(t, new(LeaseServiceSuite))
}

func (s *LeaseServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewLeaseService(ServiceParams{
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

func (s *LeaseServiceSuite) seedUnit(id, propertyID string, status types.UnitStatus) {
	s.GetStores().UnitRepo.(*testutil.InMemoryUnitStore).SeedUnit(&unit.Unit{
		ID:         id,
		PropertyID: propertyID,
		Name:       "Unit " + id,
		UnitStatus: status,
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	})
}

func (s *LeaseServiceSuite) seedTenant(id string) {
	s.GetStores().UserRepo.(*testutil.InMemoryUserStore).SeedUser(&user.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      "Tenant " + id,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	})
}

func (s *LeaseServiceSuite) newCreateRequest(unitID string) *dto.CreateLeaseRequest {
	return &dto.CreateLeaseRequest{
		PropertyID:      "prop_1",
		UnitID:          unitID,
		TenantUserID:    "user_1",
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		RentAmount:      decimal.NewFromInt(45000),
		DepositAmount:   decimal.NewFromInt(90000),
		DueDayOfMonth:   5,
		BillingCurrency: "usd",
	}
}

func (s *LeaseServiceSuite) createLease(unitID string) *dto.LeaseResponse {
	s.seedUnit(unitID, "prop_1", types.UnitStatusVacant)
	s.seedTenant("user_1")
	resp, err := s.service.CreateLease(s.GetContext(), s.newCreateRequest(unitID))
	s.NoError(err)
	return resp
}

func (s *LeaseServiceSuite) TestCreateLease() {
	resp := s.createLease("unit_1")

	s.Equal(types.LeaseStatusDraft, resp.LeaseStatus)
	s.Equal("unit_1", resp.UnitID)
	s.True(resp.RentAmount.Equal(decimal.NewFromInt(45000)))
	s.Equal(1, resp.Version)
}

func (s *LeaseServiceSuite) TestCreateLeaseUnavailableUnit() {
	// a unit that is out of service still takes a draft so the next tenancy
	// can be lined up before it returns
	s.seedUnit("unit_1", "prop_1", types.UnitStatusUnavailable)
	s.seedTenant("user_1")

	resp, err := s.service.CreateLease(s.GetContext(), s.newCreateRequest("unit_1"))
	s.NoError(err)
	s.Equal(types.LeaseStatusDraft, resp.LeaseStatus)
}

func (s *LeaseServiceSuite) TestCreateLeaseOccupiedUnit() {
	s.seedUnit("unit_1", "prop_1", types.UnitStatusOccupied)
	s.seedTenant("user_1")

	_, err := s.service.CreateLease(s.GetContext(), s.newCreateRequest("unit_1"))
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LeaseServiceSuite) TestCreateLeaseReservedUnit() {
	s.seedUnit("unit_1", "prop_1", types.UnitStatusReserved)
	s.seedTenant("user_1")

	_, err := s.service.CreateLease(s.GetContext(), s.newCreateRequest("unit_1"))
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LeaseServiceSuite) TestCreateLeaseOverlappingTerm() {
	created := s.createLease("unit_1")
	_, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)

	// the unit reads vacant again, but the active tenancy still blocks any
	// intersecting term
	s.NoError(s.GetStores().UnitRepo.UpdateStatus(s.GetContext(), "unit_1", types.UnitStatusVacant))

	req := s.newCreateRequest("unit_1")
	req.StartDate = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	req.EndDate = time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	_, err = s.service.CreateLease(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))

	// a term after the active lease ends is fine
	req.StartDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req.EndDate = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	_, err = s.service.CreateLease(s.GetContext(), req)
	s.NoError(err)
}

func (s *LeaseServiceSuite) TestCreateLeaseWrongProperty() {
	s.seedUnit("unit_1", "prop_other", types.UnitStatusVacant)
	s.seedTenant("user_1")

	_, err := s.service.CreateLease(s.GetContext(), s.newCreateRequest("unit_1"))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LeaseServiceSuite) TestCreateLeaseUnknownTenant() {
	s.seedUnit("unit_1", "prop_1", types.UnitStatusVacant)

	_, err := s.service.CreateLease(s.GetContext(), s.newCreateRequest("unit_1"))
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *LeaseServiceSuite) TestCreateLeaseInvalidDates() {
	s.seedUnit("unit_1", "prop_1", types.UnitStatusVacant)
	s.seedTenant("user_1")

	req := s.newCreateRequest("unit_1")
	req.StartDate, req.EndDate = req.EndDate, req.StartDate
	_, err := s.service.CreateLease(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LeaseServiceSuite) TestActivateLease() {
	created := s.createLease("unit_1")

	resp, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)
	s.Equal(types.LeaseStatusActive, resp.LeaseStatus)

	u, err := s.GetStores().UnitRepo.Get(s.GetContext(), "unit_1")
	s.NoError(err)
	s.Equal(types.UnitStatusOccupied, u.UnitStatus)
}

func (s *LeaseServiceSuite) TestPendingMoveInReservesUnit() {
	created := s.createLease("unit_1")

	_, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusPendingMoveIn,
	})
	s.NoError(err)

	u, err := s.GetStores().UnitRepo.Get(s.GetContext(), "unit_1")
	s.NoError(err)
	s.Equal(types.UnitStatusReserved, u.UnitStatus)
}

func (s *LeaseServiceSuite) TestActivateOverlappingLease() {
	// overlapping drafts may coexist; the clash surfaces when the second one
	// tries to take the unit
	first := s.createLease("unit_1")
	second, err := s.service.CreateLease(s.GetContext(), s.newCreateRequest("unit_1"))
	s.NoError(err)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), first.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), second.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *LeaseServiceSuite) TestActivateNonOverlappingLease() {
	first := s.createLease("unit_1")

	req := s.newCreateRequest("unit_1")
	req.StartDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req.EndDate = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	second, err := s.service.CreateLease(s.GetContext(), req)
	s.NoError(err)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), first.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), second.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusPendingMoveIn,
	})
	s.NoError(err)
}

func (s *LeaseServiceSuite) TestNoBackwardTransitions() {
	created := s.createLease("unit_1")
	_, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)

	for _, target := range []types.LeaseStatus{types.LeaseStatusDraft, types.LeaseStatusPendingMoveIn, types.LeaseStatusCancelled} {
		_, err = s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
			LeaseStatus: target,
		})
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err))
	}
}

func (s *LeaseServiceSuite) TestTerminalStatusIsFinal() {
	created := s.createLease("unit_1")
	_, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)
	_, err = s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusEnded,
	})
	s.NoError(err)

	u, err := s.GetStores().UnitRepo.Get(s.GetContext(), "unit_1")
	s.NoError(err)
	s.Equal(types.UnitStatusVacant, u.UnitStatus)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LeaseServiceSuite) TestCancelPendingMoveInReleasesUnit() {
	created := s.createLease("unit_1")
	_, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusPendingMoveIn,
	})
	s.NoError(err)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusCancelled,
	})
	s.NoError(err)

	u, err := s.GetStores().UnitRepo.Get(s.GetContext(), "unit_1")
	s.NoError(err)
	s.Equal(types.UnitStatusVacant, u.UnitStatus)
}

func (s *LeaseServiceSuite) TestUpdateLeaseTerms() {
	created := s.createLease("unit_1")

	rent := decimal.NewFromInt(50000)
	resp, err := s.service.UpdateLease(s.GetContext(), created.ID, &dto.UpdateLeaseRequest{
		RentAmount: &rent,
	})
	s.NoError(err)
	s.True(resp.RentAmount.Equal(rent))
	s.Equal(2, resp.Version)
}

func (s *LeaseServiceSuite) TestUpdateActiveLeaseTermsLocked() {
	created := s.createLease("unit_1")
	_, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)

	rent := decimal.NewFromInt(50000)
	_, err = s.service.UpdateLease(s.GetContext(), created.ID, &dto.UpdateLeaseRequest{
		RentAmount: &rent,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// notes are not lease terms and stay editable
	notes := "tenant requested parking"
	resp, err := s.service.UpdateLease(s.GetContext(), created.ID, &dto.UpdateLeaseRequest{
		Notes: &notes,
	})
	s.NoError(err)
	s.Equal(notes, resp.Notes)
}

func (s *LeaseServiceSuite) TestUpdateLeaseDatesOntoOtherTenancy() {
	// 2025 is held by an active tenancy, 2026 by a pending one
	first := s.createLease("unit_1")
	req := s.newCreateRequest("unit_1")
	req.StartDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req.EndDate = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	second, err := s.service.CreateLease(s.GetContext(), req)
	s.NoError(err)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), first.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)
	_, err = s.service.ChangeLeaseStatus(s.GetContext(), second.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusPendingMoveIn,
	})
	s.NoError(err)

	// pending move-in terms are still editable, but the new dates land on the
	// active tenancy and must be rejected
	newStart := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	newEnd := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	_, err = s.service.UpdateLease(s.GetContext(), second.ID, &dto.UpdateLeaseRequest{
		StartDate: &newStart,
		EndDate:   &newEnd,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))

	stored, err := s.GetStores().LeaseRepo.Get(s.GetContext(), second.ID)
	s.NoError(err)
	s.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), stored.StartDate)
}

func (s *LeaseServiceSuite) TestUpdateLeaseDatesClearOfOtherTenancy() {
	first := s.createLease("unit_1")
	req := s.newCreateRequest("unit_1")
	req.StartDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req.EndDate = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	second, err := s.service.CreateLease(s.GetContext(), req)
	s.NoError(err)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), first.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)
	_, err = s.service.ChangeLeaseStatus(s.GetContext(), second.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusPendingMoveIn,
	})
	s.NoError(err)

	newStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	resp, err := s.service.UpdateLease(s.GetContext(), second.ID, &dto.UpdateLeaseRequest{
		StartDate: &newStart,
	})
	s.NoError(err)
	s.Equal(newStart, resp.StartDate)
}

func (s *LeaseServiceSuite) TestDeleteLease() {
	created := s.createLease("unit_1")

	err := s.service.DeleteLease(s.GetContext(), created.ID)
	s.NoError(err)

	_, err = s.service.GetLease(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *LeaseServiceSuite) TestDeleteActiveLease() {
	created := s.createLease("unit_1")
	_, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)

	err = s.service.DeleteLease(s.GetContext(), created.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LeaseServiceSuite) TestRenewLease() {
	created := s.createLease("unit_1")
	_, err := s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)

	rent := decimal.NewFromInt(47000)
	resp, err := s.service.RenewLease(s.GetContext(), created.ID, &dto.RenewLeaseRequest{
		StartDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		RentAmount: &rent,
	})
	s.NoError(err)
	s.NotEqual(created.ID, resp.ID)
	s.Equal(types.LeaseStatusDraft, resp.LeaseStatus)
	s.Equal(created.UnitID, resp.UnitID)
	s.Equal(created.TenantUserID, resp.TenantUserID)
	s.True(resp.RentAmount.Equal(rent))
	s.True(resp.DepositAmount.Equal(created.DepositAmount))
	s.Equal(created.ID, resp.Metadata["renewed_from"])
}

func (s *LeaseServiceSuite) TestRenewDraftLease() {
	created := s.createLease("unit_1")

	_, err := s.service.RenewLease(s.GetContext(), created.ID, &dto.RenewLeaseRequest{
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LeaseServiceSuite) TestRenewOverlappingTerm() {
	created := s.createLease("unit_1")

	// a second tenancy already holds the unit for 2026
	req := s.newCreateRequest("unit_1")
	req.StartDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req.EndDate = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	other, err := s.service.CreateLease(s.GetContext(), req)
	s.NoError(err)

	_, err = s.service.ChangeLeaseStatus(s.GetContext(), created.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusActive,
	})
	s.NoError(err)
	_, err = s.service.ChangeLeaseStatus(s.GetContext(), other.ID, &dto.ChangeLeaseStatusRequest{
		LeaseStatus: types.LeaseStatusPendingMoveIn,
	})
	s.NoError(err)

	_, err = s.service.RenewLease(s.GetContext(), created.ID, &dto.RenewLeaseRequest{
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 5, 31, 0, 0, 0, 0, time.UTC),
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *LeaseServiceSuite) TestListLeases() {
	s.createLease("unit_1")
	s.seedUnit("unit_2", "prop_1", types.UnitStatusVacant)
	req := s.newCreateRequest("unit_2")
	_, err := s.service.CreateLease(s.GetContext(), req)
	s.NoError(err)

	filter := types.NewLeaseFilter()
	filter.UnitID = "unit_2"
	resp, err := s.service.ListLeases(s.GetContext(), filter)
	s.NoError(err)
	s.Len(resp.Items, 1)

	all, err := s.service.ListLeases(s.GetContext(), nil)
	s.NoError(err)
	s.Equal(2, all.Pagination.Total)
}

func (s *LeaseServiceSuite) TestGetLeaseBalance() {
	created := s.createLease("unit_1")

	issued := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		LeaseID:       created.ID,
		InvoiceNumber: "INV-202501-BALANCE1",
		InvoiceStatus: types.InvoiceStatusIssued,
		IssueDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Currency:      "usd",
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	issued.LineItems = []*invoice.LineItem{
		invoice.NewLineItem(issued.ID, "Monthly rent", decimal.NewFromInt(1), decimal.NewFromInt(45000), types.GetDefaultBaseModel(s.GetContext())),
	}
	issued.RecomputeTotals(decimal.Zero)
	s.NoError(s.GetStores().InvoiceRepo.CreateWithLineItems(s.GetContext(), issued))

	// a draft invoice bills nothing and must not count
	draft := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		LeaseID:       created.ID,
		InvoiceNumber: "INV-202502-BALANCE2",
		InvoiceStatus: types.InvoiceStatusDraft,
		IssueDate:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
		Currency:      "usd",
		Version:       1,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	draft.LineItems = []*invoice.LineItem{
		invoice.NewLineItem(draft.ID, "Monthly rent", decimal.NewFromInt(1), decimal.NewFromInt(45000), types.GetDefaultBaseModel(s.GetContext())),
	}
	draft.RecomputeTotals(decimal.Zero)
	s.NoError(s.GetStores().InvoiceRepo.CreateWithLineItems(s.GetContext(), draft))

	resp, err := s.service.GetLeaseBalance(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, resp.LeaseID)
	s.Equal("usd", resp.Currency)
	s.True(resp.OutstandingBalance.Equal(decimal.NewFromInt(45000)))
}

func (s *LeaseServiceSuite) TestConcurrentUpdateVersionConflict() {
	created := s.createLease("unit_1")

	first, err := s.GetStores().LeaseRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)
	second, err := s.GetStores().LeaseRepo.Get(s.GetContext(), created.ID)
	s.NoError(err)

	first.Notes = "first writer"
	s.NoError(s.GetStores().LeaseRepo.Update(s.GetContext(), first))

	second.Notes = "second writer"
	err = s.GetStores().LeaseRepo.Update(s.GetContext(), second)
	s.Error(err)
	s.True(ierr.IsVersionConflict(err))
}
