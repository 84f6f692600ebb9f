package httphandler

import (
	"context"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// FollowUser adds a follow edge from the caller to the named user.
func (h *Handler) FollowUser(ctx context.Context, rc *RequestContext) (*Result, error) {
	followed, err := h.social.Follow(ctx, rc.User.ID, rc.Param("handle"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"following": toUserResponse(*followed)}), nil
}

// UnfollowUser removes a follow edge.
func (h *Handler) UnfollowUser(ctx context.Context, rc *RequestContext) (*Result, error) {
	if err := h.social.Unfollow(ctx, rc.User.ID, rc.Param("handle")); err != nil {
		return nil, err
	}
	return OK(map[string]any{}), nil
}

// ListFollowers returns the users following the named user.
func (h *Handler) ListFollowers(ctx context.Context, rc *RequestContext) (*Result, error) {
	users, err := h.social.Followers(ctx, rc.Param("handle"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"followers": toUserResponses(users)}), nil
}

// ListFollowing returns the users the named user follows.
func (h *Handler) ListFollowing(ctx context.Context, rc *RequestContext) (*Result, error) {
	users, err := h.social.Following(ctx, rc.Param("handle"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"following": toUserResponses(users)}), nil
}

// AddBookmark saves a publication for the caller.
func (h *Handler) AddBookmark(ctx context.Context, rc *RequestContext) (*Result, error) {
	pub, err := h.social.Bookmark(ctx, rc.User.ID, rc.Param("id"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"publication": toPublicationResponse(*pub, false)}), nil
}

// RemoveBookmark drops a saved publication.
func (h *Handler) RemoveBookmark(ctx context.Context, rc *RequestContext) (*Result, error) {
	if err := h.social.RemoveBookmark(ctx, rc.User.ID, rc.Param("id")); err != nil {
		return nil, err
	}
	return OK(map[string]any{}), nil
}

// ListBookmarks returns the caller's saved publications.
func (h *Handler) ListBookmarks(ctx context.Context, rc *RequestContext) (*Result, error) {
	pubs, err := h.social.Bookmarks(ctx, rc.User.ID)
	if err != nil {
		return nil, err
	}
	resp := make([]PublicationResponse, 0, len(pubs))
	for _, p := range pubs {
		resp = append(resp, toPublicationResponse(p, false))
	}
	return OK(map[string]any{"bookmarks": resp}), nil
}

func toUserResponses(users []model.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	return resp
}
