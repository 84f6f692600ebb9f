package httphandler

import (
	"context"
	"strconv"
)

// ListSupergroups returns every registered federation peer, tokens omitted.
func (h *Handler) ListSupergroups(ctx context.Context, rc *RequestContext) (*Result, error) {
	peers, err := h.supergroups.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]SupergroupResponse, 0, len(peers))
	for _, peer := range peers {
		resp = append(resp, toSupergroupResponse(peer, false))
	}
	return OK(map[string]any{"supergroups": resp}), nil
}

// RegisterSupergroup adds a peer and returns its freshly minted token.
func (h *Handler) RegisterSupergroup(ctx context.Context, rc *RequestContext) (*Result, error) {
	peer, err := h.supergroups.Register(ctx,
		rc.BodyString("name"),
		rc.BodyString("tag"),
		rc.BodyString("baseUrl"),
	)
	if err != nil {
		return nil, err
	}
	return Created(map[string]any{"supergroup": toSupergroupResponse(*peer, true)}), nil
}

// RemoveSupergroup deregisters a peer by numeric id.
func (h *Handler) RemoveSupergroup(ctx context.Context, rc *RequestContext) (*Result, error) {
	id, err := strconv.ParseInt(rc.Param("id"), 10, 64)
	if err != nil {
		return nil, errNotFound()
	}
	if err := h.supergroups.Deregister(ctx, id); err != nil {
		return nil, err
	}
	return OK(map[string]any{}), nil
}
