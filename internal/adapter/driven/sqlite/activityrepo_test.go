package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhub/quillhub/internal/domain/model"
)

func makeActivity(ownerID int64, kind string) *model.Activity {
	return &model.Activity{
		Type:        "publication",
		Kind:        kind,
		OwnerID:     ownerID,
		DocumentRef: "doc-1",
		Metadata:    map[string]any{"title": "On Moths"},
		CreatedAt:   time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
	}
}

func TestActivityRepo_CreateStartsNotLive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	activity := makeActivity(owner.ID, "create")
	require.NoError(t, repo.Create(ctx, activity))
	assert.NotZero(t, activity.ID)

	live, err := repo.ListLiveByOwner(ctx, owner.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, live, "records are invisible until promoted")
}

func TestActivityRepo_SetLive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	activity := makeActivity(owner.ID, "create")
	require.NoError(t, repo.Create(ctx, activity))
	require.NoError(t, repo.SetLive(ctx, activity.ID))

	live, err := repo.ListLiveByOwner(ctx, owner.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "create", live[0].Kind)
	assert.Equal(t, "doc-1", live[0].DocumentRef)
	assert.Equal(t, "On Moths", live[0].Metadata["title"])
	assert.True(t, live[0].IsLive)
}

func TestActivityRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	activity := makeActivity(owner.ID, "create")
	require.NoError(t, repo.Create(ctx, activity))
	require.NoError(t, repo.SetLive(ctx, activity.ID))
	require.NoError(t, repo.Delete(ctx, activity.ID))

	live, err := repo.ListLiveByOwner(ctx, owner.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestActivityRepo_ListLiveByOwnerNewestFirstPaged(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepo(db)
	ctx := context.Background()

	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")

	for i := 0; i < 3; i++ {
		activity := makeActivity(alice.ID, fmt.Sprintf("kind-%d", i))
		require.NoError(t, repo.Create(ctx, activity))
		require.NoError(t, repo.SetLive(ctx, activity.ID))
	}
	other := makeActivity(bob.ID, "create")
	require.NoError(t, repo.Create(ctx, other))
	require.NoError(t, repo.SetLive(ctx, other.ID))

	page, err := repo.ListLiveByOwner(ctx, alice.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "kind-2", page[0].Kind)
	assert.Equal(t, "kind-1", page[1].Kind)

	rest, err := repo.ListLiveByOwner(ctx, alice.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "kind-0", rest[0].Kind)
}
