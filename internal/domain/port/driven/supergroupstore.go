package driven

import (
	"context"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// SupergroupStore defines the driven port for the federation peer registry.
type SupergroupStore interface {
	Add(ctx context.Context, peer *model.Supergroup) error
	Remove(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]model.Supergroup, error)
	GetByTag(ctx context.Context, tag string) (*model.Supergroup, error)
	// GetByToken resolves the peer presenting the given bearer token on an
	// inbound federation request.
	GetByToken(ctx context.Context, token string) (*model.Supergroup, error)
}
