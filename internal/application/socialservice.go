package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// ErrSelfFollow rejects a user following their own account.
var ErrSelfFollow = errors.New("cannot follow yourself")

// SocialService manages the follower graph and publication bookmarks.
// Follow and bookmark writes are idempotent; repeating one is not an error.
type SocialService struct {
	social       driven.SocialStore
	users        driven.UserStore
	publications driven.PublicationStore
	logger       *slog.Logger
}

func NewSocialService(social driven.SocialStore, users driven.UserStore, publications driven.PublicationStore, logger *slog.Logger) *SocialService {
	return &SocialService{social: social, users: users, publications: publications, logger: logger}
}

// Follow adds a follow edge from the acting user to the named user.
func (s *SocialService) Follow(ctx context.Context, followerID int64, handle string) (*model.User, error) {
	followed, err := s.users.GetActiveByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", handle, err)
	}
	if followed == nil {
		return nil, ErrUserNotFound
	}
	if followed.ID == followerID {
		return nil, ErrSelfFollow
	}
	if err := s.social.Follow(ctx, followerID, followed.ID); err != nil {
		return nil, fmt.Errorf("following %s: %w", handle, err)
	}
	return followed, nil
}

// Unfollow removes a follow edge. Unfollowing someone not followed is a
// no-op.
func (s *SocialService) Unfollow(ctx context.Context, followerID int64, handle string) error {
	followed, err := s.users.GetActiveByHandle(ctx, handle)
	if err != nil {
		return fmt.Errorf("looking up user %s: %w", handle, err)
	}
	if followed == nil {
		return ErrUserNotFound
	}
	if err := s.social.Unfollow(ctx, followerID, followed.ID); err != nil {
		return fmt.Errorf("unfollowing %s: %w", handle, err)
	}
	return nil
}

// Followers returns the users following the named user.
func (s *SocialService) Followers(ctx context.Context, handle string) ([]model.User, error) {
	user, err := s.users.GetActiveByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", handle, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.social.ListFollowers(ctx, user.ID)
}

// Following returns the users the named user follows.
func (s *SocialService) Following(ctx context.Context, handle string) ([]model.User, error) {
	user, err := s.users.GetActiveByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", handle, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.social.ListFollowing(ctx, user.ID)
}

// Bookmark saves a publication for the acting user.
func (s *SocialService) Bookmark(ctx context.Context, userID int64, publicationPublicID string) (*model.Publication, error) {
	pub, err := s.publications.GetActiveByPublicID(ctx, publicationPublicID)
	if err != nil {
		return nil, fmt.Errorf("looking up publication: %w", err)
	}
	if pub == nil {
		return nil, ErrPublicationNotFound
	}
	if err := s.social.AddBookmark(ctx, userID, pub.ID); err != nil {
		return nil, fmt.Errorf("bookmarking publication: %w", err)
	}
	return pub, nil
}

// RemoveBookmark drops a saved publication.
func (s *SocialService) RemoveBookmark(ctx context.Context, userID int64, publicationPublicID string) error {
	pub, err := s.publications.GetActiveByPublicID(ctx, publicationPublicID)
	if err != nil {
		return fmt.Errorf("looking up publication: %w", err)
	}
	if pub == nil {
		return ErrPublicationNotFound
	}
	if err := s.social.RemoveBookmark(ctx, userID, pub.ID); err != nil {
		return fmt.Errorf("removing bookmark: %w", err)
	}
	return nil
}

// Bookmarks returns the acting user's saved publications.
func (s *SocialService) Bookmarks(ctx context.Context, userID int64) ([]model.Publication, error) {
	return s.social.ListBookmarks(ctx, userID)
}
