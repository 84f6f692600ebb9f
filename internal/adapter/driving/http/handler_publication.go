package httphandler

import (
	"context"
	"errors"
	"strconv"

	"github.com/quillhub/quillhub/internal/application"
	"github.com/quillhub/quillhub/internal/domain/model"
)

// verifyPublicationOwner allows a publication's owner and moderators
// through. Anyone else gets the same not-found as a missing publication, so
// existence is not leaked.
func (h *Handler) verifyPublicationOwner(ctx context.Context, rc *RequestContext) error {
	pub, err := h.publications.Get(ctx, rc.Param("id"))
	if err != nil {
		if errors.Is(err, application.ErrPublicationNotFound) {
			return errNotFound()
		}
		return err
	}
	if pub.OwnerID != rc.User.ID && !rc.User.Role.AtLeast(model.RoleModerator) {
		return errNotFound()
	}
	return nil
}

// ListPublications returns one page of active publications.
func (h *Handler) ListPublications(ctx context.Context, rc *RequestContext) (*Result, error) {
	page, _ := strconv.Atoi(rc.Query("page"))
	perPage, _ := strconv.Atoi(rc.Query("perPage"))

	listing, err := h.publications.List(ctx, page, perPage)
	if err != nil {
		return nil, err
	}

	resp := make([]PublicationResponse, 0, len(listing.Publications))
	for _, p := range listing.Publications {
		resp = append(resp, toPublicationResponse(p, false))
	}
	return OK(map[string]any{
		"publications": resp,
		"total":        listing.Total,
		"page":         listing.Page,
		"perPage":      listing.PerPage,
	}), nil
}

// ListUserPublications returns every active publication owned by a user.
func (h *Handler) ListUserPublications(ctx context.Context, rc *RequestContext) (*Result, error) {
	user, err := h.users.GetByHandle(ctx, rc.Param("handle"))
	if err != nil {
		return nil, err
	}
	pubs, err := h.publications.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	resp := make([]PublicationResponse, 0, len(pubs))
	for _, p := range pubs {
		resp = append(resp, toPublicationResponse(p, false))
	}
	return OK(map[string]any{"publications": resp}), nil
}

// CreatePublication stores a new draft owned by the caller.
func (h *Handler) CreatePublication(ctx context.Context, rc *RequestContext) (*Result, error) {
	pub, err := h.publications.Create(ctx, rc.User.ID,
		rc.BodyString("title"),
		rc.BodyString("abstract"),
		rc.BodyString("content"),
	)
	if err != nil {
		return nil, err
	}
	return Created(map[string]any{"publication": toPublicationResponse(*pub, true)}), nil
}

// GetPublication returns one publication with rendered content.
func (h *Handler) GetPublication(ctx context.Context, rc *RequestContext) (*Result, error) {
	pub, err := h.publications.Get(ctx, rc.Param("id"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"publication": toPublicationResponse(*pub, true)}), nil
}

// RevisePublication appends a revision.
func (h *Handler) RevisePublication(ctx context.Context, rc *RequestContext) (*Result, error) {
	pub, err := h.publications.Revise(ctx, rc.Param("id"),
		rc.BodyString("title"),
		rc.BodyString("abstract"),
		rc.BodyString("content"),
	)
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"publication": toPublicationResponse(*pub, true)}), nil
}

// SetPublicationStatus publishes or retracts a publication.
func (h *Handler) SetPublicationStatus(ctx context.Context, rc *RequestContext) (*Result, error) {
	pub, err := h.publications.SetStatus(ctx, rc.Param("id"), model.PublicationStatus(rc.BodyString("status")))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"publication": toPublicationResponse(*pub, false)}), nil
}

// DeletePublication soft-deletes a publication.
func (h *Handler) DeletePublication(ctx context.Context, rc *RequestContext) (*Result, error) {
	if err := h.publications.Delete(ctx, rc.Param("id")); err != nil {
		return nil, err
	}
	return OK(map[string]any{}), nil
}

// ListRevisions returns a publication's revision history.
func (h *Handler) ListRevisions(ctx context.Context, rc *RequestContext) (*Result, error) {
	revs, err := h.publications.Revisions(ctx, rc.Param("id"))
	if err != nil {
		return nil, err
	}
	resp := make([]RevisionResponse, 0, len(revs))
	for _, r := range revs {
		resp = append(resp, toRevisionResponse(r))
	}
	return OK(map[string]any{"revisions": resp}), nil
}
