package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rentledger/rentledger/internal/domain/lease"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	"github.com/rentledger/rentledger/internal/types"
)

type leaseRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewLeaseRepository(db *postgres.DB, logger *logger.Logger) lease.Repository {
	return &leaseRepository{db: db, logger: logger}
}

const leaseColumns = `
	id, property_id, unit_id, tenant_user_id, lease_status, start_date, end_date,
	rent_amount, deposit_amount, due_day_of_month, billing_currency, late_fee_percent,
	notes, metadata, version, organization_id, status, created_at, updated_at, created_by, updated_by`

func (r *leaseRepository) Create(ctx context.Context, l *lease.Lease) error {
	query := `
		INSERT INTO leases (` + leaseColumns + `
		) VALUES (
			:id, :property_id, :unit_id, :tenant_user_id, :lease_status, :start_date, :end_date,
			:rent_amount, :deposit_amount, :due_day_of_month, :billing_currency, :late_fee_percent,
			:notes, :metadata, :version, :organization_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating lease",
		"lease_id", l.ID,
		"organization_id", l.OrganizationID,
	)

	_, err := r.db.NamedExecContext(ctx, query, l)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create lease").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *leaseRepository) get(ctx context.Context, id string, forUpdate bool) (*lease.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases
		WHERE id = :id AND organization_id = :organization_id AND status = :status`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get lease").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("lease not found").
			WithHintf("Lease with ID %s was not found", id).
			WithReportableDetails(map[string]any{"lease_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var l lease.Lease
	if err := rows.StructScan(&l); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan lease").
			Mark(ierr.ErrDatabase)
	}
	return &l, nil
}

func (r *leaseRepository) Get(ctx context.Context, id string) (*lease.Lease, error) {
	return r.get(ctx, id, false)
}

func (r *leaseRepository) GetForUpdate(ctx context.Context, id string) (*lease.Lease, error) {
	return r.get(ctx, id, true)
}

func (r *leaseRepository) Update(ctx context.Context, l *lease.Lease) error {
	l.UpdatedAt = time.Now().UTC()
	l.UpdatedBy = types.GetUserID(ctx)
	l.Version++

	query := `
		UPDATE leases SET
			lease_status = :lease_status,
			start_date = :start_date,
			end_date = :end_date,
			rent_amount = :rent_amount,
			deposit_amount = :deposit_amount,
			due_day_of_month = :due_day_of_month,
			billing_currency = :billing_currency,
			late_fee_percent = :late_fee_percent,
			notes = :notes,
			metadata = :metadata,
			version = :version,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND organization_id = :organization_id
		AND status = :status
		AND version = :expected_version`

	params := map[string]interface{}{
		"id":               l.ID,
		"organization_id":  types.GetOrganizationID(ctx),
		"status":           types.StatusPublished,
		"expected_version": l.Version - 1,
		"lease_status":     l.LeaseStatus,
		"start_date":       l.StartDate,
		"end_date":         l.EndDate,
		"rent_amount":      l.RentAmount,
		"deposit_amount":   l.DepositAmount,
		"due_day_of_month": l.DueDayOfMonth,
		"billing_currency": l.BillingCurrency,
		"late_fee_percent": l.LateFeePercent,
		"notes":            l.Notes,
		"metadata":         l.Metadata,
		"version":          l.Version,
		"updated_at":       l.UpdatedAt,
		"updated_by":       l.UpdatedBy,
	}

	result, err := r.db.NamedExecContext(ctx, query, params)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update lease").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read update result").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("lease version conflict").
			WithHint("The lease was modified concurrently, please retry").
			WithReportableDetails(map[string]any{"lease_id": l.ID}).
			Mark(ierr.ErrVersionConflict)
	}
	return nil
}

func (r *leaseRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE leases SET
			status = :deleted_status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND organization_id = :organization_id AND status = :status`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
		"deleted_status":  types.StatusDeleted,
		"updated_at":      time.Now().UTC(),
		"updated_by":      types.GetUserID(ctx),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete lease").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read delete result").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("lease not found").
			WithHintf("Lease with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *leaseRepository) buildFilterClauses(ctx context.Context, filter *types.LeaseFilter, params map[string]interface{}) []string {
	clauses := []string{
		"organization_id = :organization_id",
		"status = :row_status",
	}
	params["organization_id"] = types.GetOrganizationID(ctx)
	params["row_status"] = types.StatusPublished

	if filter == nil {
		return clauses
	}

	if len(filter.LeaseIDs) > 0 {
		clauses = append(clauses, "id = ANY(:lease_ids)")
		params["lease_ids"] = pq.Array(filter.LeaseIDs)
	}
	if filter.UnitID != "" {
		clauses = append(clauses, "unit_id = :unit_id")
		params["unit_id"] = filter.UnitID
	}
	if filter.PropertyID != "" {
		clauses = append(clauses, "property_id = :property_id")
		params["property_id"] = filter.PropertyID
	}
	if filter.TenantUserID != "" {
		clauses = append(clauses, "tenant_user_id = :tenant_user_id")
		params["tenant_user_id"] = filter.TenantUserID
	}
	if len(filter.LeaseStatus) > 0 {
		statuses := make([]string, len(filter.LeaseStatus))
		for i, s := range filter.LeaseStatus {
			statuses[i] = s.String()
		}
		clauses = append(clauses, "lease_status = ANY(:lease_statuses)")
		params["lease_statuses"] = pq.Array(statuses)
	}

	return clauses
}

func (r *leaseRepository) List(ctx context.Context, filter *types.LeaseFilter) ([]*lease.Lease, error) {
	params := map[string]interface{}{}
	clauses := r.buildFilterClauses(ctx, filter, params)

	query := `SELECT ` + leaseColumns + ` FROM leases WHERE ` + strings.Join(clauses, " AND ")
	query += fmt.Sprintf(" ORDER BY %s %s", filter.QueryFilter.GetSort(), filter.QueryFilter.GetOrder())
	if !filter.IsUnlimited() {
		query += " LIMIT :limit OFFSET :offset"
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list leases").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var leases []*lease.Lease
	for rows.Next() {
		var l lease.Lease
		if err := rows.StructScan(&l); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan lease").
				Mark(ierr.ErrDatabase)
		}
		leases = append(leases, &l)
	}
	return leases, nil
}

func (r *leaseRepository) Count(ctx context.Context, filter *types.LeaseFilter) (int, error) {
	params := map[string]interface{}{}
	clauses := r.buildFilterClauses(ctx, filter, params)

	query := `SELECT COUNT(*) FROM leases WHERE ` + strings.Join(clauses, " AND ")

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count leases").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan lease count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}

// CountOverlapping runs the interval-overlap test against leases that reserve
// the unit. The three disjuncts mirror lease.Overlaps: new start inside an
// existing range, new end inside it, or the new range containing it.
func (r *leaseRepository) CountOverlapping(ctx context.Context, unitID string, start, end time.Time, excludeLeaseID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM leases
		WHERE unit_id = :unit_id
		AND organization_id = :organization_id
		AND status = :row_status
		AND lease_status = ANY(:lease_statuses)
		AND id != :exclude_lease_id
		AND (
			(:new_start BETWEEN start_date AND end_date)
			OR (:new_end BETWEEN start_date AND end_date)
			OR (:new_start < start_date AND :new_end > end_date)
		)`

	statuses := make([]string, len(types.LeaseStatusesOccupyingUnit))
	for i, s := range types.LeaseStatusesOccupyingUnit {
		statuses[i] = s.String()
	}

	params := map[string]interface{}{
		"unit_id":          unitID,
		"organization_id":  types.GetOrganizationID(ctx),
		"row_status":       types.StatusPublished,
		"lease_statuses":   pq.Array(statuses),
		"exclude_lease_id": excludeLeaseID,
		"new_start":        start,
		"new_end":          end,
	}

	rows, err := r.db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to check lease overlap").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, ierr.WithError(err).
				WithHint("Failed to scan overlap count").
				Mark(ierr.ErrDatabase)
		}
	}
	return count, nil
}
