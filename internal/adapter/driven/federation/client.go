// Package federation implements the outbound HTTP client for talking to
// sister services.
package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/quillhub/quillhub/internal/domain/model"
	"github.com/quillhub/quillhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PeerClient = (*Client)(nil)

const requestTimeout = 10 * time.Second

// Maximum peer response body read. Profiles are small; anything larger is a
// misbehaving peer.
const maxResponseBytes = 1 << 20

// Client implements the driven.PeerClient port over plain HTTP with
// ETag-based response caching. Every peer response is expected to be a JSON
// envelope carrying a status field; anything else is a contract violation.
type Client struct {
	http *http.Client
}

// NewClient creates a peer client with an httpcache memory transport so
// repeated profile fetches revalidate instead of re-downloading.
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   requestTimeout,
		},
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// Intended for testing against an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{http: httpClient}
}

// peerEnvelope is the wire form every peer response arrives in.
type peerEnvelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
	User    *driven.PeerUser    `json:"user"`
}

// FetchUser retrieves one user's profile from a peer. Transport problems
// come back tagged fetch, error envelopes and contract violations tagged
// service.
func (c *Client) FetchUser(ctx context.Context, peer model.Supergroup, ref string) (*driven.PeerUser, error) {
	endpoint := fmt.Sprintf("%s/api/v1/federation/users/%s", peer.BaseURL, url.PathEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &driven.PeerError{
			Kind:    driven.PeerErrorUnknown,
			Message: "building peer request",
			Err:     err,
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+peer.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &driven.PeerError{
			Kind:    driven.PeerErrorFetch,
			Message: fmt.Sprintf("requesting %s from peer %s", ref, peer.Tag),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &driven.PeerError{
			Kind:    driven.PeerErrorFetch,
			Message: fmt.Sprintf("reading response from peer %s", peer.Tag),
			Err:     err,
		}
	}

	// The transport succeeded; a body that breaks the envelope contract is
	// the peer misbehaving, not the network.
	var envelope peerEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &driven.PeerError{
			Kind:    driven.PeerErrorService,
			Message: fmt.Sprintf("peer %s returned a non-JSON response", peer.Tag),
			Err:     err,
		}
	}

	switch envelope.Status {
	case "ok":
		if envelope.User == nil || envelope.User.Ref == "" {
			return nil, &driven.PeerError{
				Kind:    driven.PeerErrorService,
				Message: fmt.Sprintf("peer %s omitted the user from an ok response", peer.Tag),
			}
		}
		return envelope.User, nil
	case "error":
		return nil, &driven.PeerError{
			Kind:    driven.PeerErrorService,
			Message: envelope.Message,
			Fields:  envelope.Errors,
		}
	default:
		return nil, &driven.PeerError{
			Kind:    driven.PeerErrorService,
			Message: fmt.Sprintf("peer %s returned unrecognized status %q", peer.Tag, envelope.Status),
		}
	}
}
