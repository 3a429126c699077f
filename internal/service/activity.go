package service

import (
	"context"

	"github.com/rentledger/rentledger/internal/domain/activity"
	"github.com/rentledger/rentledger/internal/types"
)

// ActivityService records audit events for business mutations. Writes are
// fire-and-forget: a failed append is logged and swallowed so it never fails
// the operation it describes.
type ActivityService interface {
	Log(ctx context.Context, action types.ActivityAction, targetTable, targetID, description string, before, after types.Metadata)
	ListByTarget(ctx context.Context, targetTable, targetID string) ([]*activity.Event, error)
}

type activityService struct {
	ServiceParams
}

func NewActivityService(params ServiceParams) ActivityService {
	return &activityService{ServiceParams: params}
}

func (s *activityService) Log(ctx context.Context, action types.ActivityAction, targetTable, targetID, description string, before, after types.Metadata) {
	event := &activity.Event{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ACTIVITY_EVENT),
		ActorUserID: types.GetUserID(ctx),
		Action:      action,
		TargetTable: targetTable,
		TargetID:    targetID,
		Description: description,
		Before:      before,
		After:       after,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}

	if err := s.ActivityRepo.Create(ctx, event); err != nil {
		s.Logger.Warnw("failed to record activity event",
			"action", action,
			"target_table", targetTable,
			"target_id", targetID,
			"error", err,
		)
	}
}

func (s *activityService) ListByTarget(ctx context.Context, targetTable, targetID string) ([]*activity.Event, error) {
	return s.ActivityRepo.ListByTarget(ctx, targetTable, targetID)
}
