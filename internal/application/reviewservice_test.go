package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// memReviewStore is an in-memory ReviewStore for service tests.
type memReviewStore struct {
	reviews  []*model.Review
	comments []*model.Comment
	nextID   int64
}

func (m *memReviewStore) Create(_ context.Context, review *model.Review) error {
	m.nextID++
	review.ID = m.nextID
	clone := *review
	m.reviews = append(m.reviews, &clone)
	return nil
}

func (m *memReviewStore) GetByID(_ context.Context, id int64) (*model.Review, error) {
	for _, r := range m.reviews {
		if r.ID == id {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memReviewStore) GetByPublicID(_ context.Context, publicID string) (*model.Review, error) {
	for _, r := range m.reviews {
		if r.PublicID == publicID {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memReviewStore) ListByPublication(_ context.Context, publicationID int64) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.PublicationID == publicationID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReviewStore) UpdateStatus(_ context.Context, id int64, status model.ReviewStatus) error {
	for _, r := range m.reviews {
		if r.ID == id {
			r.Status = status
			return nil
		}
	}
	return nil
}

func (m *memReviewStore) CreateComment(_ context.Context, comment *model.Comment) error {
	m.nextID++
	comment.ID = m.nextID
	clone := *comment
	m.comments = append(m.comments, &clone)
	return nil
}

func (m *memReviewStore) GetComment(_ context.Context, id int64) (*model.Comment, error) {
	for _, c := range m.comments {
		if c.ID == id {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memReviewStore) ListComments(_ context.Context, reviewID int64) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range m.comments {
		if c.ReviewID == reviewID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memReviewStore) ImportTx(_ context.Context, fn func(tx driven.ImportTx) error) error {
	return fn(&memReviewTx{store: m})
}

type memReviewTx struct {
	store *memReviewStore
}

func (t *memReviewTx) CreateUser(_ context.Context, user *model.User) error {
	t.store.nextID++
	user.ID = t.store.nextID
	return nil
}

func (t *memReviewTx) CreateReview(ctx context.Context, review *model.Review) error {
	return t.store.Create(ctx, review)
}

func (t *memReviewTx) CreateComment(ctx context.Context, comment *model.Comment) error {
	return t.store.CreateComment(ctx, comment)
}

func newReviewFixture() (*ReviewService, *memReviewStore, *memUserStore, *model.Publication) {
	pub := &model.Publication{
		ID:       7,
		PublicID: "pub-1",
		OwnerID:  1,
		Title:    "On Moths",
		Status:   model.PublicationStatusPublished,
	}
	reviews := &memReviewStore{}
	users := &memUserStore{}
	svc := NewReviewService(reviews, &mockPublicationStoreForImport{pub: pub}, users, testLogger())
	return svc, reviews, users, pub
}

func TestReviewService_Create(t *testing.T) {
	svc, _, _, pub := newReviewFixture()
	ctx := context.Background()

	review, err := svc.Create(ctx, pub.PublicID, 3, "a <script>alert(1)</script>thorough review")
	require.NoError(t, err)
	assert.NotZero(t, review.ID)
	assert.NotEmpty(t, review.PublicID)
	assert.Equal(t, pub.ID, review.PublicationID)
	assert.Equal(t, int64(3), review.AuthorID)
	assert.Equal(t, model.ReviewStatusPending, review.Status)
	assert.Equal(t, model.OriginLocal, review.Origin)
	assert.NotContains(t, review.Summary, "<script>")
}

func TestReviewService_CreateUnknownPublication(t *testing.T) {
	svc, _, _, _ := newReviewFixture()

	_, err := svc.Create(context.Background(), "no-such-pub", 3, "summary")
	assert.ErrorIs(t, err, ErrPublicationNotFound)
}

func TestReviewService_Complete(t *testing.T) {
	svc, store, _, pub := newReviewFixture()
	ctx := context.Background()

	review, err := svc.Create(ctx, pub.PublicID, 3, "summary")
	require.NoError(t, err)

	completed, err := svc.Complete(ctx, review.PublicID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusCompleted, completed.Status)

	stored, err := store.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusCompleted, stored.Status)

	_, err = svc.Complete(ctx, "no-such-review")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestReviewService_AddComment(t *testing.T) {
	svc, _, _, pub := newReviewFixture()
	ctx := context.Background()

	review, err := svc.Create(ctx, pub.PublicID, 3, "summary")
	require.NoError(t, err)

	anchor := &model.Anchor{Start: 3, End: 5}
	root, err := svc.AddComment(ctx, review.PublicID, 3, "anchored remark", "chapter1.md", anchor, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, root.ThreadID)
	require.NotNil(t, root.AnchorStart)
	assert.Equal(t, 3, *root.AnchorStart)
	assert.Equal(t, 5, *root.AnchorEnd)
	assert.Nil(t, root.ReplyTo)

	reply, err := svc.AddComment(ctx, review.PublicID, 4, "a reply", "", nil, &root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ThreadID, reply.ThreadID, "replies join the parent's thread")
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, root.ID, *reply.ReplyTo)

	standalone, err := svc.AddComment(ctx, review.PublicID, 4, "new topic", "", nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, root.ThreadID, standalone.ThreadID)
}

func TestReviewService_AddCommentRejectsForeignParent(t *testing.T) {
	svc, _, _, pub := newReviewFixture()
	ctx := context.Background()

	first, err := svc.Create(ctx, pub.PublicID, 3, "summary")
	require.NoError(t, err)
	second, err := svc.Create(ctx, pub.PublicID, 4, "summary")
	require.NoError(t, err)

	parent, err := svc.AddComment(ctx, first.PublicID, 3, "remark", "", nil, nil)
	require.NoError(t, err)

	// Replying across reviews is rejected as is replying to nothing.
	_, err = svc.AddComment(ctx, second.PublicID, 4, "reply", "", nil, &parent.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	missing := int64(9999)
	_, err = svc.AddComment(ctx, first.PublicID, 4, "reply", "", nil, &missing)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestReviewService_ListForPublication(t *testing.T) {
	svc, _, users, pub := newReviewFixture()
	ctx := context.Background()

	author := &model.User{Handle: "bob", Role: model.RoleDefault, Origin: model.OriginLocal}
	require.NoError(t, users.Create(ctx, author))

	review, err := svc.Create(ctx, pub.PublicID, author.ID, "summary")
	require.NoError(t, err)

	root, err := svc.AddComment(ctx, review.PublicID, author.ID, "remark", "", nil, nil)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, review.PublicID, author.ID, "reply", "", nil, &root.ID)
	require.NoError(t, err)

	details, err := svc.ListForPublication(ctx, pub.PublicID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, review.ID, details[0].Review.ID)
	require.NotNil(t, details[0].Author)
	assert.Equal(t, "bob", details[0].Author.Handle)
	require.Len(t, details[0].Threads, 1)
	assert.Equal(t, root.ID, details[0].Threads[0].Root.ID)
	assert.Len(t, details[0].Threads[0].Replies, 1)
}

func TestReviewService_Detail(t *testing.T) {
	svc, _, users, pub := newReviewFixture()
	ctx := context.Background()

	author := &model.User{Handle: "bob", Role: model.RoleDefault, Origin: model.OriginLocal}
	require.NoError(t, users.Create(ctx, author))

	review, err := svc.Create(ctx, pub.PublicID, author.ID, "summary")
	require.NoError(t, err)
	root, err := svc.AddComment(ctx, review.PublicID, author.ID, "remark", "", nil, nil)
	require.NoError(t, err)

	detail, err := svc.Detail(ctx, review.PublicID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, detail.Review.ID)
	require.NotNil(t, detail.Author)
	assert.Equal(t, "bob", detail.Author.Handle)
	require.Len(t, detail.Threads, 1)
	assert.Equal(t, root.ID, detail.Threads[0].Root.ID)

	_, err = svc.Detail(ctx, "missing")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestGroupIntoThreads(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	rootA := model.Comment{ID: 1, ThreadID: "a", PostedAt: base.Add(2 * time.Hour)}
	rootB := model.Comment{ID: 2, ThreadID: "b", PostedAt: base}
	replyTo := func(id int64) *int64 { return &id }
	replyA2 := model.Comment{ID: 3, ThreadID: "a", ReplyTo: replyTo(1), PostedAt: base.Add(4 * time.Hour)}
	replyA1 := model.Comment{ID: 4, ThreadID: "a", ReplyTo: replyTo(1), PostedAt: base.Add(3 * time.Hour)}

	threads := groupIntoThreads([]model.Comment{rootA, rootB, replyA2, replyA1})

	require.Len(t, threads, 2)
	// Threads are ordered by their root's posting time.
	assert.Equal(t, int64(2), threads[0].Root.ID)
	assert.Equal(t, int64(1), threads[1].Root.ID)
	// Replies come back in posting order regardless of insertion order.
	require.Len(t, threads[1].Replies, 2)
	assert.Equal(t, int64(4), threads[1].Replies[0].ID)
	assert.Equal(t, int64(3), threads[1].Replies[1].ID)
}

func TestGroupIntoThreads_OrphanReplyPromoted(t *testing.T) {
	replyTo := func(id int64) *int64 { return &id }
	orphan := model.Comment{ID: 5, ThreadID: "lost", ReplyTo: replyTo(99),
		PostedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}

	threads := groupIntoThreads([]model.Comment{orphan})

	require.Len(t, threads, 1)
	assert.Equal(t, int64(5), threads[0].Root.ID)
	assert.Empty(t, threads[0].Replies)
}

func TestGroupIntoThreads_Empty(t *testing.T) {
	assert.Nil(t, groupIntoThreads(nil))
}
