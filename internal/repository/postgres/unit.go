package postgres

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/domain/unit"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	"github.com/rentledger/rentledger/internal/types"
)

type unitRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUnitRepository(db *postgres.DB, logger *logger.Logger) unit.Repository {
	return &unitRepository{db: db, logger: logger}
}

const unitColumns = `
	id, property_id, name, unit_status,
	organization_id, status, created_at, updated_at, created_by, updated_by`

func (r *unitRepository) Get(ctx context.Context, id string) (*unit.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units
		WHERE id = :id AND organization_id = :organization_id AND status = :status`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get unit").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("unit not found").
			WithHintf("Unit with ID %s was not found", id).
			WithReportableDetails(map[string]any{"unit_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var u unit.Unit
	if err := rows.StructScan(&u); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan unit").
			Mark(ierr.ErrDatabase)
	}
	return &u, nil
}

func (r *unitRepository) UpdateStatus(ctx context.Context, id string, status types.UnitStatus) error {
	query := `
		UPDATE units SET
			unit_status = :unit_status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND organization_id = :organization_id AND status = :row_status`

	r.logger.Debugw("updating unit status",
		"unit_id", id,
		"unit_status", status,
	)

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"row_status":      types.StatusPublished,
		"unit_status":     status,
		"updated_at":      time.Now().UTC(),
		"updated_by":      types.GetUserID(ctx),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update unit status").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read update result").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("unit not found").
			WithHintf("Unit with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
