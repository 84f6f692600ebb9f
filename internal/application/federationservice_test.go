package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhub/quillhub/internal/domain/model"
)

func newFederationFixture(t *testing.T) (*FederationService, *memReviewStore, *memUserStore, *model.Review) {
	t.Helper()

	pub := &model.Publication{
		ID:       7,
		PublicID: "pub-1",
		OwnerID:  1,
		Title:    "On Moths",
		Status:   model.PublicationStatusPublished,
	}
	reviews := &memReviewStore{}
	users := &memUserStore{}

	review := &model.Review{
		PublicID:      "rev-1",
		PublicationID: pub.ID,
		Summary:       "a careful read",
		Status:        model.ReviewStatusCompleted,
		Origin:        model.OriginLocal,
	}
	require.NoError(t, reviews.Create(context.Background(), review))

	svc := NewFederationService(reviews, &mockPublicationStoreForImport{pub: pub}, users, "quillhub", testLogger())
	return svc, reviews, users, review
}

func TestFederationService_ExportReview(t *testing.T) {
	svc, reviews, users, review := newFederationFixture(t)
	ctx := context.Background()

	local := &model.User{PublicID: "uuid-local", Handle: "alice", DisplayName: "Alice",
		Role: model.RoleDefault, Origin: model.OriginLocal}
	require.NoError(t, users.Create(ctx, local))
	review.AuthorID = local.ID
	reviews.reviews[0].AuthorID = local.ID

	start, end := 3, 5
	root := &model.Comment{ReviewID: review.ID, AuthorID: local.ID, ThreadID: "t1",
		Filename: "chapter1.md", AnchorStart: &start, AnchorEnd: &end,
		Body: "anchored", PostedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, reviews.CreateComment(ctx, root))
	reply := &model.Comment{ReviewID: review.ID, AuthorID: local.ID, ThreadID: "t1",
		ReplyTo: &root.ID, Body: "a reply", PostedAt: time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)}
	require.NoError(t, reviews.CreateComment(ctx, reply))

	bundle, err := svc.ExportReview(ctx, review.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "pub-1", bundle.PublicationID)
	assert.Equal(t, "a careful read", bundle.Summary)
	assert.Equal(t, "uuid-local", bundle.Author.Ref, "local authors are referenced by public id")
	assert.Equal(t, "quillhub", bundle.Author.Service)

	require.Len(t, bundle.Comments, 2)
	assert.Equal(t, root.ID, bundle.Comments[0].ID)
	require.NotNil(t, bundle.Comments[0].Anchor)
	assert.Equal(t, 3, bundle.Comments[0].Anchor.Start)
	assert.Equal(t, 5, bundle.Comments[0].Anchor.End)
	assert.Nil(t, bundle.Comments[0].Replying)

	require.NotNil(t, bundle.Comments[1].Replying)
	assert.Equal(t, root.ID, *bundle.Comments[1].Replying)
	assert.Nil(t, bundle.Comments[1].Anchor)
}

func TestFederationService_ExportKeepsImportedIdentity(t *testing.T) {
	svc, reviews, users, review := newFederationFixture(t)
	ctx := context.Background()

	imported := &model.User{PublicID: "uuid-imp", Handle: "carol@peerhub", DisplayName: "Carol",
		Role: model.RoleDefault, Origin: "peerhub", ExternalRef: "remote-carol"}
	require.NoError(t, users.Create(ctx, imported))
	review.AuthorID = imported.ID
	reviews.reviews[0].AuthorID = imported.ID

	bundle, err := svc.ExportReview(ctx, review.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "remote-carol", bundle.Author.Ref, "re-exports keep the original federation identity")
	assert.Equal(t, "peerhub", bundle.Author.Service)
}

func TestFederationService_ExportUnknownReview(t *testing.T) {
	svc, _, _, _ := newFederationFixture(t)

	_, err := svc.ExportReview(context.Background(), "no-such-review")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestFederationService_LocalProfile(t *testing.T) {
	svc, _, users, _ := newFederationFixture(t)
	ctx := context.Background()

	local := &model.User{PublicID: "uuid-local", Handle: "alice", DisplayName: "Alice", Bio: "hi",
		Role: model.RoleDefault, Origin: model.OriginLocal}
	require.NoError(t, users.Create(ctx, local))

	profile, err := svc.LocalProfile(ctx, "uuid-local")
	require.NoError(t, err)
	assert.Equal(t, "uuid-local", profile.Ref)
	assert.Equal(t, "alice", profile.Handle)
	assert.Equal(t, "hi", profile.Bio)

	_, err = svc.LocalProfile(ctx, "no-such-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSupergroupService_RegisterMintsToken(t *testing.T) {
	store := &memSupergroupStore{}
	svc := NewSupergroupService(store, testLogger())
	ctx := context.Background()

	peer, err := svc.Register(ctx, " Peer Hub ", "PeerHub", "https://peerhub.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "Peer Hub", peer.Name)
	assert.Equal(t, "peerhub", peer.Tag, "tags are lowercased")
	assert.Equal(t, "https://peerhub.example.com", peer.BaseURL, "trailing slash is trimmed")
	assert.Len(t, peer.Token, 64)

	other, err := svc.Register(ctx, "East Hub", "easthub", "https://east.example.com")
	require.NoError(t, err)
	assert.NotEqual(t, peer.Token, other.Token)
}

func TestSupergroupService_Authenticate(t *testing.T) {
	store := &memSupergroupStore{}
	svc := NewSupergroupService(store, testLogger())
	ctx := context.Background()

	peer, err := svc.Register(ctx, "Peer Hub", "peerhub", "https://peerhub.example.com")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, peer.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "peerhub", got.Tag)

	got, err = svc.Authenticate(ctx, "wrong-token")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Authenticate(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, svc.Deregister(ctx, peer.ID))
	got, err = svc.Authenticate(ctx, peer.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "deregistered tokens stop authenticating")
}
