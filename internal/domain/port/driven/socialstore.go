package driven

import (
	"context"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// SocialStore defines the driven port for the follower graph and bookmarks.
type SocialStore interface {
	Follow(ctx context.Context, followerID, followedID int64) error
	Unfollow(ctx context.Context, followerID, followedID int64) error
	ListFollowers(ctx context.Context, userID int64) ([]model.User, error)
	ListFollowing(ctx context.Context, userID int64) ([]model.User, error)
	AddBookmark(ctx context.Context, userID, publicationID int64) error
	RemoveBookmark(ctx context.Context, userID, publicationID int64) error
	ListBookmarks(ctx context.Context, userID int64) ([]model.Publication, error)
}
