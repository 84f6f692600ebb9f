package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// memUserStore is an in-memory UserStore for service tests.
type memUserStore struct {
	users  []*model.User
	nextID int64
}

func (m *memUserStore) Create(_ context.Context, user *model.User) error {
	m.nextID++
	user.ID = m.nextID
	clone := *user
	m.users = append(m.users, &clone)
	return nil
}

func (m *memUserStore) GetActiveByID(_ context.Context, id int64) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == id && u.DeletedAt == nil }), nil
}

func (m *memUserStore) GetActiveByPublicID(_ context.Context, publicID string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.PublicID == publicID && u.DeletedAt == nil }), nil
}

func (m *memUserStore) GetActiveByHandle(_ context.Context, handle string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Handle == handle && u.DeletedAt == nil }), nil
}

func (m *memUserStore) GetActiveByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email && u.DeletedAt == nil }), nil
}

func (m *memUserStore) GetByExternalRef(_ context.Context, service, ref string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Origin == service && u.ExternalRef == ref }), nil
}

func (m *memUserStore) Update(_ context.Context, user *model.User) error {
	for i, u := range m.users {
		if u.ID == user.ID {
			clone := *user
			m.users[i] = &clone
			return nil
		}
	}
	return nil
}

func (m *memUserStore) find(match func(*model.User) bool) *model.User {
	for _, u := range m.users {
		if match(u) {
			clone := *u
			return &clone
		}
	}
	return nil
}

func newAuthService(store *memUserStore) *AuthService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(store, []byte("test-secret"), logger)
}

func TestAuthService_Register(t *testing.T) {
	store := &memUserStore{}
	svc := newAuthService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "Alice@Example.com", "Alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEmpty(t, user.PublicID)
	assert.Equal(t, "alice", user.Handle)
	assert.Equal(t, "alice@example.com", user.Email, "email is normalised")
	assert.Equal(t, model.RoleDefault, user.Role)
	assert.Equal(t, model.OriginLocal, user.Origin)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	store := &memUserStore{}
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@example.com", "Alice", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrHandleTaken)

	_, err = svc.Register(ctx, "alice2", "alice@example.com", "Alice", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	store := &memUserStore{}
	svc := newAuthService(store)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter2hunter2")
	require.NoError(t, err)

	user, pair, err := svc.Login(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Positive(t, pair.ExpiresIn)

	authed, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, authed.ID)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	store := &memUserStore{}
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ImportedUsersCannotLogIn(t *testing.T) {
	store := &memUserStore{}
	require.NoError(t, store.Create(context.Background(), &model.User{
		PublicID: "uuid-imp",
		Handle:   "bob@peerhub",
		Email:    "bob@example.com",
		Role:     model.RoleDefault,
		Origin:   "peerhub",
	}))
	svc := newAuthService(store)

	_, _, err := svc.Login(context.Background(), "bob@example.com", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshRotatesTokens(t *testing.T) {
	store := &memUserStore{}
	svc := newAuthService(store)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter2hunter2")
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	user, fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, fresh.AccessToken)
}

func TestAuthService_TokenUseIsEnforced(t *testing.T) {
	store := &memUserStore{}
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter2hunter2")
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	// A refresh token is not an access token and vice versa.
	_, err = svc.Authenticate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RejectsForgedTokens(t *testing.T) {
	store := &memUserStore{}
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Alice", "hunter2hunter2")
	require.NoError(t, err)

	other := NewAuthService(store, []byte("different-secret"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, pair, err := other.Login(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
