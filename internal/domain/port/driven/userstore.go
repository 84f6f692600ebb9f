package driven

import (
	"context"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// UserStore defines the driven port for persisting user accounts.
// "Active" read methods exclude soft-deleted users; the exclusion is part of
// the method contract rather than an implicit query rewrite.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetActiveByID(ctx context.Context, id int64) (*model.User, error)
	GetActiveByPublicID(ctx context.Context, publicID string) (*model.User, error)
	GetActiveByHandle(ctx context.Context, handle string) (*model.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByExternalRef looks up an imported user by its stable federation
	// identity. Used to make author imports idempotent.
	GetByExternalRef(ctx context.Context, service, ref string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}
