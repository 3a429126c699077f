package service

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/api/dto"
	"github.com/rentledger/rentledger/internal/domain/lease"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/samber/lo"
)

const targetTableLeases = "leases"

// LeaseService drives the lease lifecycle: draft, pending move-in, active,
// and the terminal ended/terminated/cancelled states. Activation reserves the
// unit and is guarded against overlapping tenancies on the same unit.
type LeaseService interface {
	CreateLease(ctx context.Context, req *dto.CreateLeaseRequest) (*dto.LeaseResponse, error)
	GetLease(ctx context.Context, id string) (*dto.LeaseResponse, error)
	ListLeases(ctx context.Context, filter *types.LeaseFilter) (*dto.ListLeasesResponse, error)
	UpdateLease(ctx context.Context, id string, req *dto.UpdateLeaseRequest) (*dto.LeaseResponse, error)
	ChangeLeaseStatus(ctx context.Context, id string, req *dto.ChangeLeaseStatusRequest) (*dto.LeaseResponse, error)
	DeleteLease(ctx context.Context, id string) error
	RenewLease(ctx context.Context, id string, req *dto.RenewLeaseRequest) (*dto.LeaseResponse, error)
	GetLeaseBalance(ctx context.Context, id string) (*dto.LeaseBalanceResponse, error)
}

type leaseService struct {
	ServiceParams
	activityService ActivityService
}

func NewLeaseService(params ServiceParams) LeaseService {
	return &leaseService{
		ServiceParams:   params,
		activityService: NewActivityService(params),
	}
}

func (s *leaseService) CreateLease(ctx context.Context, req *dto.CreateLeaseRequest) (*dto.LeaseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l := req.ToLease(ctx)
	if err := l.Validate(); err != nil {
		return nil, err
	}

	u, err := s.UnitRepo.Get(ctx, l.UnitID)
	if err != nil {
		return nil, err
	}
	if u.PropertyID != l.PropertyID {
		return nil, ierr.NewError("unit does not belong to property").
			WithHint("The unit is not part of the given property").
			WithReportableDetails(map[string]any{
				"unit_id":     l.UnitID,
				"property_id": l.PropertyID,
			}).
			Mark(ierr.ErrValidation)
	}

	if !lo.Contains(types.UnitStatusesLeasable, u.UnitStatus) {
		return nil, ierr.NewError("unit is not leasable").
			WithHintf("Unit in status %s cannot take a lease", u.UnitStatus).
			WithReportableDetails(map[string]any{"unit_status": u.UnitStatus}).
			Mark(ierr.ErrInvalidOperation)
	}

	if _, err := s.UserRepo.Get(ctx, l.TenantUserID); err != nil {
		return nil, err
	}

	overlapping, err := s.LeaseRepo.CountOverlapping(ctx, l.UnitID, l.StartDate, l.EndDate, "")
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, ierr.NewError("unit already leased for this period").
			WithHint("Another lease occupies the unit during the requested dates").
			WithReportableDetails(map[string]any{
				"unit_id":    l.UnitID,
				"start_date": l.StartDate,
				"end_date":   l.EndDate,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.LeaseRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionLeaseCreated, targetTableLeases, l.ID,
		"lease created", nil, types.Metadata{"lease_status": l.LeaseStatus.String()})

	return dto.NewLeaseResponse(l), nil
}

func (s *leaseService) GetLease(ctx context.Context, id string) (*dto.LeaseResponse, error) {
	l, err := s.LeaseRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewLeaseResponse(l), nil
}

func (s *leaseService) ListLeases(ctx context.Context, filter *types.LeaseFilter) (*dto.ListLeasesResponse, error) {
	if filter == nil {
		filter = types.NewLeaseFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	leases, err := s.LeaseRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.LeaseRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.LeaseResponse, len(leases))
	for i, l := range leases {
		items[i] = dto.NewLeaseResponse(l)
	}

	return &dto.ListLeasesResponse{
		Items: items,
		Pagination: &types.PaginationResponse{
			Total:  count,
			Limit:  filter.GetLimit(),
			Offset: filter.GetOffset(),
		},
	}, nil
}

// leaseStatusesEditable are the statuses whose lease terms may still change
var leaseStatusesEditable = map[types.LeaseStatus]bool{
	types.LeaseStatusDraft:         true,
	types.LeaseStatusPendingMoveIn: true,
}

func (s *leaseService) UpdateLease(ctx context.Context, id string, req *dto.UpdateLeaseRequest) (*dto.LeaseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *lease.Lease
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		l, err := s.LeaseRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		termsChanged := req.StartDate != nil || req.EndDate != nil || req.RentAmount != nil ||
			req.DepositAmount != nil || req.DueDayOfMonth != nil
		if termsChanged && !leaseStatusesEditable[l.LeaseStatus] {
			return ierr.NewError("lease terms are locked").
				WithHintf("Lease terms cannot change in status %s", l.LeaseStatus).
				WithReportableDetails(map[string]any{"lease_status": l.LeaseStatus}).
				Mark(ierr.ErrInvalidOperation)
		}

		if req.StartDate != nil {
			l.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			l.EndDate = *req.EndDate
		}
		if req.RentAmount != nil {
			l.RentAmount = *req.RentAmount
		}
		if req.DepositAmount != nil {
			l.DepositAmount = *req.DepositAmount
		}
		if req.DueDayOfMonth != nil {
			l.DueDayOfMonth = *req.DueDayOfMonth
		}
		if req.LateFeePercent != nil {
			l.LateFeePercent = *req.LateFeePercent
		}
		if req.Notes != nil {
			l.Notes = *req.Notes
		}
		if req.Metadata != nil {
			l.Metadata = req.Metadata
		}

		if err := l.Validate(); err != nil {
			return err
		}

		// a date change can move the lease onto another tenancy's term, so the
		// overlap check runs again, skipping this lease's own row
		if req.StartDate != nil || req.EndDate != nil {
			overlapping, err := s.LeaseRepo.CountOverlapping(ctx, l.UnitID, l.StartDate, l.EndDate, l.ID)
			if err != nil {
				return err
			}
			if overlapping > 0 {
				return ierr.NewError("unit already leased for this period").
					WithHint("Another lease occupies the unit during the requested dates").
					WithReportableDetails(map[string]any{
						"unit_id":    l.UnitID,
						"start_date": l.StartDate,
						"end_date":   l.EndDate,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
		}

		if err := s.LeaseRepo.Update(ctx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionLeaseUpdated, targetTableLeases, id,
		"lease updated", nil, nil)

	return dto.NewLeaseResponse(updated), nil
}

func (s *leaseService) ChangeLeaseStatus(ctx context.Context, id string, req *dto.ChangeLeaseStatusRequest) (*dto.LeaseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *lease.Lease
	var previous types.LeaseStatus
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		l, err := s.LeaseRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = l.LeaseStatus

		if !l.LeaseStatus.CanTransitionTo(req.LeaseStatus) {
			return ierr.NewError("lease status transition not allowed").
				WithHintf("Cannot move lease from %s to %s", l.LeaseStatus, req.LeaseStatus).
				WithReportableDetails(map[string]any{
					"from": l.LeaseStatus,
					"to":   req.LeaseStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		// transitions that reserve the unit must not collide with another
		// tenancy on the same unit
		if req.LeaseStatus == types.LeaseStatusActive || req.LeaseStatus == types.LeaseStatusPendingMoveIn {
			overlapping, err := s.LeaseRepo.CountOverlapping(ctx, l.UnitID, l.StartDate, l.EndDate, l.ID)
			if err != nil {
				return err
			}
			if overlapping > 0 {
				return ierr.NewError("unit already leased for this period").
					WithHint("Another lease occupies the unit during the requested dates").
					WithReportableDetails(map[string]any{
						"unit_id":    l.UnitID,
						"start_date": l.StartDate,
						"end_date":   l.EndDate,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
		}

		l.LeaseStatus = req.LeaseStatus
		if err := s.LeaseRepo.Update(ctx, l); err != nil {
			return err
		}

		if err := s.applyUnitTransition(ctx, l, previous); err != nil {
			return err
		}

		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionLeaseStatusChanged, targetTableLeases, id,
		req.Reason,
		types.Metadata{"lease_status": previous.String()},
		types.Metadata{"lease_status": updated.LeaseStatus.String()})

	return dto.NewLeaseResponse(updated), nil
}

// applyUnitTransition keeps the unit's occupancy in step with the lease:
// pending move-in reserves, active occupies, and the terminal states release
// the unit when this lease was the one holding it.
func (s *leaseService) applyUnitTransition(ctx context.Context, l *lease.Lease, previous types.LeaseStatus) error {
	switch l.LeaseStatus {
	case types.LeaseStatusPendingMoveIn:
		return s.UnitRepo.UpdateStatus(ctx, l.UnitID, types.UnitStatusReserved)
	case types.LeaseStatusActive:
		return s.UnitRepo.UpdateStatus(ctx, l.UnitID, types.UnitStatusOccupied)
	case types.LeaseStatusEnded, types.LeaseStatusTerminated:
		return s.UnitRepo.UpdateStatus(ctx, l.UnitID, types.UnitStatusVacant)
	case types.LeaseStatusCancelled:
		if previous == types.LeaseStatusPendingMoveIn {
			return s.UnitRepo.UpdateStatus(ctx, l.UnitID, types.UnitStatusVacant)
		}
	}
	return nil
}

func (s *leaseService) DeleteLease(ctx context.Context, id string) error {
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		l, err := s.LeaseRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if l.LeaseStatus != types.LeaseStatusDraft {
			return ierr.NewError("only draft leases can be deleted").
				WithHintf("Lease in status %s cannot be deleted", l.LeaseStatus).
				WithReportableDetails(map[string]any{"lease_status": l.LeaseStatus}).
				Mark(ierr.ErrInvalidOperation)
		}
		return s.LeaseRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.activityService.Log(ctx, types.ActivityActionLeaseDeleted, targetTableLeases, id,
		"lease deleted", nil, nil)
	return nil
}

func (s *leaseService) RenewLease(ctx context.Context, id string, req *dto.RenewLeaseRequest) (*dto.LeaseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	source, err := s.LeaseRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if source.LeaseStatus != types.LeaseStatusActive && source.LeaseStatus != types.LeaseStatusEnded {
		return nil, ierr.NewError("lease cannot be renewed").
			WithHintf("Only active or ended leases can be renewed, lease is %s", source.LeaseStatus).
			WithReportableDetails(map[string]any{"lease_status": source.LeaseStatus}).
			Mark(ierr.ErrInvalidOperation)
	}

	renewal := &lease.Lease{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEASE),
		PropertyID:      source.PropertyID,
		UnitID:          source.UnitID,
		TenantUserID:    source.TenantUserID,
		LeaseStatus:     types.LeaseStatusDraft,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		RentAmount:      source.RentAmount,
		DepositAmount:   source.DepositAmount,
		DueDayOfMonth:   source.DueDayOfMonth,
		BillingCurrency: source.BillingCurrency,
		LateFeePercent:  source.LateFeePercent,
		Metadata:        types.Metadata{"renewed_from": source.ID},
		Version:         1,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	if req.RentAmount != nil {
		renewal.RentAmount = *req.RentAmount
	}

	if err := renewal.Validate(); err != nil {
		return nil, err
	}

	// fail early when the renewal term collides with a tenancy other than the
	// lease being renewed
	overlapping, err := s.LeaseRepo.CountOverlapping(ctx, renewal.UnitID, renewal.StartDate, renewal.EndDate, source.ID)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, ierr.NewError("unit already leased for renewal period").
			WithHint("Another lease occupies the unit during the renewal dates").
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.LeaseRepo.Create(ctx, renewal); err != nil {
		return nil, err
	}

	s.activityService.Log(ctx, types.ActivityActionLeaseCreated, targetTableLeases, renewal.ID,
		"lease renewed", types.Metadata{"renewed_from": source.ID}, nil)

	return dto.NewLeaseResponse(renewal), nil
}

func (s *leaseService) GetLeaseBalance(ctx context.Context, id string) (*dto.LeaseBalanceResponse, error) {
	l, err := s.LeaseRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.InvoiceRepo.SumOutstandingByLease(ctx, l.ID)
	if err != nil {
		return nil, err
	}

	return &dto.LeaseBalanceResponse{
		LeaseID:            l.ID,
		Currency:           l.BillingCurrency,
		OutstandingBalance: outstanding,
		AsOf:               time.Now().UTC(),
	}, nil
}
