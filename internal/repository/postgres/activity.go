package postgres

import (
	"context"

	"github.com/rentledger/rentledger/internal/domain/activity"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	"github.com/rentledger/rentledger/internal/types"
)

type activityRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewActivityRepository(db *postgres.DB, logger *logger.Logger) activity.Repository {
	return &activityRepository{db: db, logger: logger}
}

const activityColumns = `
	id, actor_user_id, action, target_table, target_id, description, before, after,
	organization_id, status, created_at, updated_at, created_by, updated_by`

func (r *activityRepository) Create(ctx context.Context, event *activity.Event) error {
	query := `
		INSERT INTO activity_events (` + activityColumns + `
		) VALUES (
			:id, :actor_user_id, :action, :target_table, :target_id, :description, :before, :after,
			:organization_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	_, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record activity event").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *activityRepository) ListByTarget(ctx context.Context, targetTable, targetID string) ([]*activity.Event, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_events
		WHERE target_table = :target_table
		AND target_id = :target_id
		AND organization_id = :organization_id
		AND status = :status
		ORDER BY created_at DESC`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"target_table":    targetTable,
		"target_id":       targetID,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list activity events").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var events []*activity.Event
	for rows.Next() {
		var e activity.Event
		if err := rows.StructScan(&e); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan activity event").
				Mark(ierr.ErrDatabase)
		}
		events = append(events, &e)
	}
	return events, nil
}
