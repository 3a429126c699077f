package postgres

import (
	"context"

	"github.com/rentledger/rentledger/internal/domain/user"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
	"github.com/rentledger/rentledger/internal/types"
)

type userRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Get(ctx context.Context, id string) (*user.User, error) {
	query := `
		SELECT id, email, name, organization_id, status, created_at, updated_at, created_by, updated_by
		FROM users
		WHERE id = :id AND organization_id = :organization_id AND status = :status`

	rows, err := r.db.NamedQueryContext(ctx, query, map[string]interface{}{
		"id":              id,
		"organization_id": types.GetOrganizationID(ctx),
		"status":          types.StatusPublished,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to get user").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ierr.NewError("user not found").
			WithHintf("User with ID %s was not found", id).
			WithReportableDetails(map[string]any{"user_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var u user.User
	if err := rows.StructScan(&u); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to scan user").
			Mark(ierr.ErrDatabase)
	}
	return &u, nil
}
