package driven

import (
	"context"
	"time"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// PublicationStore defines the driven port for persisting publications and
// their revisions.
type PublicationStore interface {
	Create(ctx context.Context, pub *model.Publication) error
	GetActiveByID(ctx context.Context, id int64) (*model.Publication, error)
	GetActiveByPublicID(ctx context.Context, publicID string) (*model.Publication, error)
	// ListActive returns published, non-deleted publications newest first,
	// with skip/limit pagination, plus the total count.
	ListActive(ctx context.Context, offset, limit int) ([]model.Publication, int, error)
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]model.Publication, error)
	Update(ctx context.Context, pub *model.Publication) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	AddRevision(ctx context.Context, rev *model.Revision) error
	ListRevisions(ctx context.Context, publicationID int64) ([]model.Revision, error)
}
