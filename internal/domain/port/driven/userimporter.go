package driven

import (
	"context"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// UserImporter resolves an external author reference to a local user.
// A hit on the (service, ref) key returns the already-imported user; a miss
// fetches the author's profile from the originating peer and returns an
// unpersisted user (ID zero) for the caller to commit alongside the rest of
// the import.
type UserImporter interface {
	Resolve(ctx context.Context, ref model.ExternalAuthorRef) (*model.User, error)
}
