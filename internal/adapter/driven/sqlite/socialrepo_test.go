package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhub/quillhub/internal/domain/model"
)

func TestSocialRepo_FollowAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSocialRepo(db)
	ctx := context.Background()

	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")
	carol := addTestUser(t, db, "carol")

	require.NoError(t, repo.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, repo.Follow(ctx, carol.ID, alice.ID))
	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

	followers, err := repo.ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	handles := []string{followers[0].Handle, followers[1].Handle}
	assert.ElementsMatch(t, []string{"bob", "carol"}, handles)

	following, err := repo.ListFollowing(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].Handle)
}

func TestSocialRepo_FollowTwiceIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSocialRepo(db)
	ctx := context.Background()

	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")

	require.NoError(t, repo.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, repo.Follow(ctx, bob.ID, alice.ID))

	followers, err := repo.ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 1)
}

func TestSocialRepo_Unfollow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSocialRepo(db)
	ctx := context.Background()

	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")

	require.NoError(t, repo.Follow(ctx, bob.ID, alice.ID))
	require.NoError(t, repo.Unfollow(ctx, bob.ID, alice.ID))
	// Removing again is a no-op.
	require.NoError(t, repo.Unfollow(ctx, bob.ID, alice.ID))

	followers, err := repo.ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestSocialRepo_FollowersExcludeDeletedUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSocialRepo(db)
	users := NewUserRepo(db)
	ctx := context.Background()

	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")
	require.NoError(t, repo.Follow(ctx, bob.ID, alice.ID))

	deletedAt := time.Now().UTC()
	bob.DeletedAt = &deletedAt
	require.NoError(t, users.Update(ctx, bob))

	followers, err := repo.ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestSocialRepo_Bookmarks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSocialRepo(db)
	ctx := context.Background()

	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")
	first := addTestPublication(t, db, bob.ID, "On Moths", model.PublicationStatusPublished)
	second := addTestPublication(t, db, bob.ID, "On Ferns", model.PublicationStatusPublished)

	require.NoError(t, repo.AddBookmark(ctx, alice.ID, first.ID))
	require.NoError(t, repo.AddBookmark(ctx, alice.ID, second.ID))
	// Saving twice is a no-op.
	require.NoError(t, repo.AddBookmark(ctx, alice.ID, first.ID))

	bookmarks, err := repo.ListBookmarks(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, bookmarks, 2)
	assert.Equal(t, "On Moths", bookmarks[0].Title)

	require.NoError(t, repo.RemoveBookmark(ctx, alice.ID, first.ID))

	bookmarks, err = repo.ListBookmarks(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, "On Ferns", bookmarks[0].Title)
}

func TestSocialRepo_BookmarksExcludeDeletedPublications(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSocialRepo(db)
	pubs := NewPublicationRepo(db)
	ctx := context.Background()

	alice := addTestUser(t, db, "alice")
	bob := addTestUser(t, db, "bob")
	pub := addTestPublication(t, db, bob.ID, "On Moths", model.PublicationStatusPublished)

	require.NoError(t, repo.AddBookmark(ctx, alice.ID, pub.ID))
	require.NoError(t, pubs.SoftDelete(ctx, pub.ID, time.Now().UTC()))

	bookmarks, err := repo.ListBookmarks(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)
}
