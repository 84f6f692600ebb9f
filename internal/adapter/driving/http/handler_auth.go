package httphandler

import (
	"context"

	"github.com/quillhub/quillhub/internal/application"
	"github.com/quillhub/quillhub/internal/domain/model"
)

// Register creates a local account.
func (h *Handler) Register(ctx context.Context, rc *RequestContext) (*Result, error) {
	user, err := h.auth.Register(ctx,
		rc.BodyString("handle"),
		rc.BodyString("email"),
		rc.BodyString("displayName"),
		rc.BodyString("password"),
	)
	if err != nil {
		return nil, err
	}
	return Created(map[string]any{"user": toUserResponse(*user)}), nil
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(ctx context.Context, rc *RequestContext) (*Result, error) {
	user, pair, err := h.auth.Login(ctx, rc.BodyString("email"), rc.BodyString("password"))
	if err != nil {
		return nil, err
	}
	return OK(tokenPayload(user, pair)), nil
}

// Refresh exchanges a refresh token for a fresh pair.
func (h *Handler) Refresh(ctx context.Context, rc *RequestContext) (*Result, error) {
	user, pair, err := h.auth.Refresh(ctx, rc.BodyString("refreshToken"))
	if err != nil {
		return nil, err
	}
	return OK(tokenPayload(user, pair)), nil
}

func tokenPayload(user *model.User, pair *application.TokenPair) map[string]any {
	return map[string]any{
		"user":         toUserResponse(*user),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	}
}
