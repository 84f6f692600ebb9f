package httphandler

import (
	"context"
	"strconv"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// Me returns the authenticated user's own profile.
func (h *Handler) Me(_ context.Context, rc *RequestContext) (*Result, error) {
	return OK(map[string]any{"user": toUserResponse(*rc.User)}), nil
}

// UpdateProfile changes the caller's display name and bio.
func (h *Handler) UpdateProfile(ctx context.Context, rc *RequestContext) (*Result, error) {
	displayName := rc.User.DisplayName
	if _, ok := rc.Body["displayName"]; ok {
		displayName = rc.BodyString("displayName")
	}
	bio := rc.User.Bio
	if _, ok := rc.Body["bio"]; ok {
		bio = rc.BodyString("bio")
	}

	user, err := h.users.UpdateProfile(ctx, rc.User.ID, displayName, bio)
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"user": toUserResponse(*user)}), nil
}

// MyActivities returns the caller's live activity log.
func (h *Handler) MyActivities(ctx context.Context, rc *RequestContext) (*Result, error) {
	page, _ := strconv.Atoi(rc.Query("page"))
	perPage, _ := strconv.Atoi(rc.Query("perPage"))

	activities, err := h.activities.ListForUser(ctx, rc.User.ID, page, perPage)
	if err != nil {
		return nil, err
	}
	resp := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		resp = append(resp, toActivityResponse(a))
	}
	return OK(map[string]any{"activities": resp}), nil
}

// GetUser returns a public profile by handle.
func (h *Handler) GetUser(ctx context.Context, rc *RequestContext) (*Result, error) {
	user, err := h.users.GetByHandle(ctx, rc.Param("handle"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"user": toUserResponse(*user)}), nil
}

// SetRole changes a user's permission level.
func (h *Handler) SetRole(ctx context.Context, rc *RequestContext) (*Result, error) {
	user, err := h.users.SetRole(ctx, rc.Param("handle"), model.Role(rc.BodyString("role")))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"user": toUserResponse(*user)}), nil
}
