package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// UserImportService resolves external author references to local users. A
// reference already imported under its (service, ref) identity resolves to
// the stored user; anything else is fetched from the originating peer and
// returned unpersisted so the caller can commit it inside its own
// transaction.
type UserImportService struct {
	users  driven.UserStore
	peers  driven.SupergroupStore
	client driven.PeerClient
	logger *slog.Logger
}

var _ driven.UserImporter = (*UserImportService)(nil)

func NewUserImportService(users driven.UserStore, peers driven.SupergroupStore, client driven.PeerClient, logger *slog.Logger) *UserImportService {
	return &UserImportService{users: users, peers: peers, client: client, logger: logger}
}

// Resolve implements driven.UserImporter.
func (s *UserImportService) Resolve(ctx context.Context, ref model.ExternalAuthorRef) (*model.User, error) {
	existing, err := s.users.GetByExternalRef(ctx, ref.Service, ref.Ref)
	if err != nil {
		return nil, fmt.Errorf("looking up imported user %s@%s: %w", ref.Ref, ref.Service, err)
	}
	if existing != nil {
		return existing, nil
	}

	peer, err := s.peers.GetByTag(ctx, ref.Service)
	if err != nil {
		return nil, fmt.Errorf("resolving peer %s: %w", ref.Service, err)
	}
	if peer == nil {
		return nil, fmt.Errorf("no registered peer with tag %s", ref.Service)
	}

	profile, err := s.client.FetchUser(ctx, *peer, ref.Ref)
	if err != nil {
		return nil, fmt.Errorf("fetching profile for %s@%s: %w", ref.Ref, ref.Service, err)
	}

	handle, err := s.uniqueHandle(ctx, profile.Handle, ref)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		PublicID:    uuid.NewString(),
		Handle:      handle,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		Role:        model.RoleDefault,
		Origin:      ref.Service,
		ExternalRef: ref.Ref,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.logger.Debug("materialized external author",
		slog.String("handle", user.Handle),
		slog.String("service", ref.Service))
	return user, nil
}

// uniqueHandle qualifies an imported handle with its peer tag and suffixes a
// counter when even the qualified form is taken.
func (s *UserImportService) uniqueHandle(ctx context.Context, base string, ref model.ExternalAuthorRef) (string, error) {
	if base == "" {
		base = ref.Handle
	}
	if base == "" {
		base = ref.Ref
	}
	base = strings.TrimSpace(base) + "@" + ref.Service

	candidate := base
	for i := 2; ; i++ {
		taken, err := s.users.GetActiveByHandle(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking handle %s: %w", candidate, err)
		}
		if taken == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
