package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// ActivityService records the audit trail of state-changing requests. A
// record is created not-live before the action runs, promoted when the
// action succeeds and deleted when it fails, so a crash mid-request leaves
// at worst an invisible record. Every method is best-effort: recording
// failures are logged, never propagated, and never fail the request they
// describe.
type ActivityService struct {
	activities driven.ActivityStore
	logger     *slog.Logger
}

func NewActivityService(activities driven.ActivityStore, logger *slog.Logger) *ActivityService {
	return &ActivityService{activities: activities, logger: logger}
}

// Begin opens a provisional record for an action about to run. Returns nil
// when recording is unavailable; Commit and Discard accept nil.
func (s *ActivityService) Begin(ctx context.Context, activityType, kind string, ownerID int64, documentRef string, metadata map[string]any) *model.Activity {
	activity := &model.Activity{
		Type:        activityType,
		Kind:        kind,
		OwnerID:     ownerID,
		DocumentRef: documentRef,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		s.logger.Warn("activity record not created",
			slog.String("type", activityType),
			slog.String("error", err.Error()))
		return nil
	}
	return activity
}

// Commit promotes a provisional record to live.
func (s *ActivityService) Commit(ctx context.Context, activity *model.Activity) {
	if activity == nil {
		return
	}
	if err := s.activities.SetLive(ctx, activity.ID); err != nil {
		s.logger.Warn("activity record not promoted",
			slog.Int64("activity", activity.ID),
			slog.String("error", err.Error()))
		return
	}
	activity.IsLive = true
}

// Discard removes a provisional record after its action failed.
func (s *ActivityService) Discard(ctx context.Context, activity *model.Activity) {
	if activity == nil {
		return
	}
	if err := s.activities.Delete(ctx, activity.ID); err != nil {
		s.logger.Warn("activity record not discarded",
			slog.Int64("activity", activity.ID),
			slog.String("error", err.Error()))
	}
}

// ListForUser returns a page of a user's live activities, newest first.
func (s *ActivityService) ListForUser(ctx context.Context, ownerID int64, page, perPage int) ([]model.Activity, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.activities.ListLiveByOwner(ctx, ownerID, (page-1)*perPage, perPage)
}
