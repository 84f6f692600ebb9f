package driven

import (
	"context"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// ReviewStore defines the driven port for persisting reviews and comments.
type ReviewStore interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	GetByPublicID(ctx context.Context, publicID string) (*model.Review, error)
	ListByPublication(ctx context.Context, publicationID int64) ([]model.Review, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReviewStatus) error
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	// ListComments returns a review's comments in insertion order.
	ListComments(ctx context.Context, reviewID int64) ([]model.Comment, error)
	// ImportTx runs fn inside a storage transaction. If fn returns an error
	// the transaction is rolled back and nothing fn wrote is visible; the
	// underlying session is released on every exit path.
	ImportTx(ctx context.Context, fn func(tx ImportTx) error) error
}

// ImportTx is the write surface available inside a review-import transaction.
// Create methods assign the entity's storage ID on success.
type ImportTx interface {
	CreateUser(ctx context.Context, user *model.User) error
	CreateReview(ctx context.Context, review *model.Review) error
	CreateComment(ctx context.Context, comment *model.Comment) error
}
