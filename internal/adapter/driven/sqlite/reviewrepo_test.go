package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

func addTestReview(t *testing.T, db *DB, publicationID, authorID int64, publicID string) *model.Review {
	t.Helper()
	review := &model.Review{
		PublicID:      publicID,
		PublicationID: publicationID,
		AuthorID:      authorID,
		Summary:       "looks solid",
		Status:        model.ReviewStatusPending,
		Origin:        model.OriginLocal,
		CreatedAt:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	require.NoError(t, NewReviewRepo(db).Create(context.Background(), review))
	return review
}

func makeComment(reviewID, authorID int64, threadID string, replyTo *int64) *model.Comment {
	return &model.Comment{
		ReviewID: reviewID,
		AuthorID: authorID,
		ThreadID: threadID,
		ReplyTo:  replyTo,
		Body:     "a remark",
		PostedAt: time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC),
	}
}

func TestReviewRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	reviewer := addTestUser(t, db, "bob")
	pub := addTestPublication(t, db, owner.ID, "On Moths", model.PublicationStatusPublished)
	review := addTestReview(t, db, pub.ID, reviewer.ID, "rev-1")

	got, err := repo.GetByID(ctx, review.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pub.ID, got.PublicationID)
	assert.Equal(t, reviewer.ID, got.AuthorID)
	assert.Equal(t, model.ReviewStatusPending, got.Status)

	byPublicID, err := repo.GetByPublicID(ctx, "rev-1")
	require.NoError(t, err)
	require.NotNil(t, byPublicID)
	assert.Equal(t, review.ID, byPublicID.ID)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReviewRepo_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	reviewer := addTestUser(t, db, "bob")
	pub := addTestPublication(t, db, owner.ID, "On Moths", model.PublicationStatusPublished)
	review := addTestReview(t, db, pub.ID, reviewer.ID, "rev-1")

	require.NoError(t, repo.UpdateStatus(ctx, review.ID, model.ReviewStatusCompleted))

	got, err := repo.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusCompleted, got.Status)

	assert.Error(t, repo.UpdateStatus(ctx, 9999, model.ReviewStatusCompleted))
}

func TestReviewRepo_ListByPublication(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	reviewer := addTestUser(t, db, "bob")
	pub := addTestPublication(t, db, owner.ID, "On Moths", model.PublicationStatusPublished)
	other := addTestPublication(t, db, owner.ID, "On Ferns", model.PublicationStatusPublished)

	first := addTestReview(t, db, pub.ID, reviewer.ID, "rev-1")
	second := addTestReview(t, db, pub.ID, reviewer.ID, "rev-2")
	addTestReview(t, db, other.ID, reviewer.ID, "rev-3")

	reviews, err := repo.ListByPublication(ctx, pub.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, first.ID, reviews[0].ID)
	assert.Equal(t, second.ID, reviews[1].ID)
}

func TestReviewRepo_Comments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	reviewer := addTestUser(t, db, "bob")
	pub := addTestPublication(t, db, owner.ID, "On Moths", model.PublicationStatusPublished)
	review := addTestReview(t, db, pub.ID, reviewer.ID, "rev-1")

	root := makeComment(review.ID, reviewer.ID, "thread-1", nil)
	root.Filename = "chapter1.md"
	start, end := 3, 5
	root.AnchorStart = &start
	root.AnchorEnd = &end
	require.NoError(t, repo.CreateComment(ctx, root))
	require.NotZero(t, root.ID)

	reply := makeComment(review.ID, reviewer.ID, "thread-1", &root.ID)
	require.NoError(t, repo.CreateComment(ctx, reply))

	comments, err := repo.ListComments(ctx, review.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Nil(t, comments[0].ReplyTo)
	assert.Equal(t, "chapter1.md", comments[0].Filename)
	require.NotNil(t, comments[0].AnchorStart)
	assert.Equal(t, 3, *comments[0].AnchorStart)
	assert.Equal(t, 5, *comments[0].AnchorEnd)

	require.NotNil(t, comments[1].ReplyTo)
	assert.Equal(t, root.ID, *comments[1].ReplyTo)
	assert.Nil(t, comments[1].AnchorStart)

	got, err := repo.GetComment(ctx, root.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "thread-1", got.ThreadID)

	missing, err := repo.GetComment(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReviewRepo_ImportTxCommits(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	pub := addTestPublication(t, db, owner.ID, "On Moths", model.PublicationStatusPublished)

	var reviewID int64
	err := repo.ImportTx(ctx, func(tx driven.ImportTx) error {
		author := &model.User{
			PublicID:    "uuid-imported",
			Handle:      "carol@peerhub",
			Role:        model.RoleDefault,
			Origin:      "peerhub",
			ExternalRef: "remote-carol",
		}
		if err := tx.CreateUser(ctx, author); err != nil {
			return err
		}

		review := &model.Review{
			PublicID:      "rev-imported",
			PublicationID: pub.ID,
			AuthorID:      author.ID,
			Status:        model.ReviewStatusCompleted,
			Origin:        "peerhub",
			CreatedAt:     time.Now().UTC(),
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}
		reviewID = review.ID

		return tx.CreateComment(ctx, makeComment(review.ID, author.ID, "thread-1", nil))
	})
	require.NoError(t, err)

	review, err := repo.GetByID(ctx, reviewID)
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, "peerhub", review.Origin)

	comments, err := repo.ListComments(ctx, reviewID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	author, err := NewUserRepo(db).GetByExternalRef(ctx, "peerhub", "remote-carol")
	require.NoError(t, err)
	require.NotNil(t, author)
}

func TestReviewRepo_ImportTxRollsBackEverything(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)
	ctx := context.Background()

	owner := addTestUser(t, db, "alice")
	pub := addTestPublication(t, db, owner.ID, "On Moths", model.PublicationStatusPublished)

	boom := errors.New("author service refused")
	err := repo.ImportTx(ctx, func(tx driven.ImportTx) error {
		author := &model.User{
			PublicID:    "uuid-imported",
			Handle:      "carol@peerhub",
			Role:        model.RoleDefault,
			Origin:      "peerhub",
			ExternalRef: "remote-carol",
		}
		if err := tx.CreateUser(ctx, author); err != nil {
			return err
		}

		review := &model.Review{
			PublicID:      "rev-imported",
			PublicationID: pub.ID,
			AuthorID:      author.ID,
			Status:        model.ReviewStatusCompleted,
			Origin:        "peerhub",
			CreatedAt:     time.Now().UTC(),
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	review, err := repo.GetByPublicID(ctx, "rev-imported")
	require.NoError(t, err)
	assert.Nil(t, review, "review insert must not survive the rollback")

	author, err := NewUserRepo(db).GetByExternalRef(ctx, "peerhub", "remote-carol")
	require.NoError(t, err)
	assert.Nil(t, author, "author insert must not survive the rollback")
}
