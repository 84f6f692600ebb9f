package driven

import (
	"context"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// ActivityStore defines the driven port for the activity audit log.
type ActivityStore interface {
	// Create persists a not-live activity record and assigns its ID.
	Create(ctx context.Context, activity *model.Activity) error
	// SetLive promotes a previously created record to live.
	SetLive(ctx context.Context, id int64) error
	// Delete removes a record that should never become visible.
	Delete(ctx context.Context, id int64) error
	// ListLiveByOwner returns a user's live activities newest first.
	ListLiveByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]model.Activity, error)
}
