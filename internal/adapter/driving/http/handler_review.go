package httphandler

import (
	"context"
	"errors"

	"github.com/quillhub/quillhub/internal/application"
	"github.com/quillhub/quillhub/internal/domain/model"
)

// verifyReviewAuthor admits a review's author and moderators, hiding the
// review's existence from everyone else.
func (h *Handler) verifyReviewAuthor(ctx context.Context, rc *RequestContext) error {
	review, err := h.reviews.Get(ctx, rc.Param("id"))
	if err != nil {
		if errors.Is(err, application.ErrReviewNotFound) {
			return errNotFound()
		}
		return err
	}
	if review.AuthorID != rc.User.ID && !rc.User.Role.AtLeast(model.RoleModerator) {
		return errNotFound()
	}
	return nil
}

// ListReviews returns a publication's reviews with threaded comments.
func (h *Handler) ListReviews(ctx context.Context, rc *RequestContext) (*Result, error) {
	details, err := h.reviews.ListForPublication(ctx, rc.Param("id"))
	if err != nil {
		return nil, err
	}
	resp := make([]ReviewResponse, 0, len(details))
	for _, d := range details {
		resp = append(resp, toReviewResponse(d))
	}
	return OK(map[string]any{"reviews": resp}), nil
}

// GetReview returns one review with threaded comments.
func (h *Handler) GetReview(ctx context.Context, rc *RequestContext) (*Result, error) {
	detail, err := h.reviews.Detail(ctx, rc.Param("id"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"review": toReviewResponse(*detail)}), nil
}

// CreateReview starts a local review of a publication.
func (h *Handler) CreateReview(ctx context.Context, rc *RequestContext) (*Result, error) {
	review, err := h.reviews.Create(ctx, rc.Param("id"), rc.User.ID, rc.BodyString("summary"))
	if err != nil {
		return nil, err
	}
	return Created(map[string]any{"review": map[string]any{
		"id":      review.PublicID,
		"summary": review.Summary,
		"status":  string(review.Status),
	}}), nil
}

// CompleteReview marks a pending review as finished.
func (h *Handler) CompleteReview(ctx context.Context, rc *RequestContext) (*Result, error) {
	review, err := h.reviews.Complete(ctx, rc.Param("id"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"review": map[string]any{
		"id":     review.PublicID,
		"status": string(review.Status),
	}}), nil
}

// AddComment posts a comment on a review.
func (h *Handler) AddComment(ctx context.Context, rc *RequestContext) (*Result, error) {
	var anchor *model.Anchor
	if raw, ok := rc.Body["anchor"].(map[string]any); ok {
		start, _ := raw["start"].(float64)
		end, _ := raw["end"].(float64)
		anchor = &model.Anchor{Start: int(start), End: int(end)}
	}
	var replyTo *int64
	if raw, ok := rc.Body["replyTo"].(float64); ok {
		id := int64(raw)
		replyTo = &id
	}

	comment, err := h.reviews.AddComment(ctx, rc.Param("id"), rc.User.ID,
		rc.BodyString("body"), rc.BodyString("filename"), anchor, replyTo)
	if err != nil {
		return nil, err
	}
	return Created(map[string]any{"comment": toCommentResponse(*comment)}), nil
}
