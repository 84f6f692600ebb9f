package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/quillhub/quillhub/internal/adapter/driven/ziparchive"
	"github.com/quillhub/quillhub/internal/domain/model"
)

// Maximum inbound import payload: bundle JSON plus content archive.
const maxImportBytes = 64 << 20

// ImportReview accepts a multipart review bundle from an authenticated peer:
// a "bundle" JSON part and an "archive" zip part.
func (h *Handler) ImportReview(ctx context.Context, rc *RequestContext) (*Result, error) {
	r := rc.Request
	r.Body = http.MaxBytesReader(nil, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		return nil, errBadRequest("request must be a multipart form with bundle and archive parts")
	}

	raw := []byte(r.FormValue("bundle"))
	if len(raw) == 0 {
		file, _, err := r.FormFile("bundle")
		if err != nil {
			return nil, errBadRequest("missing bundle part")
		}
		defer file.Close()
		raw, err = io.ReadAll(file)
		if err != nil {
			return nil, errBadRequest("could not read bundle part")
		}
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errBadRequest("bundle part is not valid JSON")
	}
	if err := bundleSchema.Validate(decoded); err != nil {
		return nil, &RequestError{
			Status:  http.StatusBadRequest,
			Message: "Validation Failure",
			Fields:  schemaIssues(err),
		}
	}

	var bundle model.ReviewBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, errBadRequest("bundle part could not be decoded")
	}

	archiveFile, _, err := r.FormFile("archive")
	if err != nil {
		return nil, errBadRequest("missing archive part")
	}
	defer archiveFile.Close()

	archive, err := ziparchive.FromReader(archiveFile)
	if err != nil {
		return nil, errBadRequest("archive part is not a readable zip")
	}

	result, err := h.imports.Import(ctx, &bundle, archive, rc.Peer.Tag)
	if err != nil {
		return nil, err
	}

	comments := make([]CommentResponse, 0, len(result.Comments))
	for _, c := range result.Comments {
		comments = append(comments, toCommentResponse(*c))
	}
	return Created(map[string]any{
		"review": map[string]any{
			"id":      result.Review.PublicID,
			"summary": result.Review.Summary,
			"status":  string(result.Review.Status),
			"origin":  result.Review.Origin,
		},
		"comments": comments,
	}), nil
}

// FederationUser serves a local user's profile to a peer.
func (h *Handler) FederationUser(ctx context.Context, rc *RequestContext) (*Result, error) {
	profile, err := h.federation.LocalProfile(ctx, rc.Param("ref"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"user": profile}), nil
}

// ExportReview renders a local review as a portable bundle for a peer.
func (h *Handler) ExportReview(ctx context.Context, rc *RequestContext) (*Result, error) {
	bundle, err := h.federation.ExportReview(ctx, rc.Param("id"))
	if err != nil {
		return nil, err
	}
	return OK(map[string]any{"bundle": bundle}), nil
}
