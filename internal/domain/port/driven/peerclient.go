package driven

import (
	"context"
	"fmt"

	"github.com/quillhub/quillhub/internal/domain/model"
)

// PeerErrorKind classifies a failed outbound federation request.
type PeerErrorKind string

const (
	// PeerErrorFetch covers transport failures: connection refused, timeout,
	// non-JSON response.
	PeerErrorFetch PeerErrorKind = "fetch"
	// PeerErrorService covers well-formed error envelopes and envelope
	// contract violations reported by the peer.
	PeerErrorService PeerErrorKind = "service"
	// PeerErrorUnknown covers everything else.
	PeerErrorUnknown PeerErrorKind = "unknown"
)

// PeerError is the tagged error returned by PeerClient methods. Err carries
// the underlying cause for logging only; it is never surfaced to callers of
// the public API.
type PeerError struct {
	Kind    PeerErrorKind
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *PeerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("peer request (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("peer request (%s): %s", e.Kind, e.Message)
}

func (e *PeerError) Unwrap() error { return e.Err }

// PeerUser is the profile a federation peer exposes for one of its users.
type PeerUser struct {
	Ref         string `json:"ref"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

// PeerClient defines the driven port for outbound federation fetches.
// Implementations apply a bounded timeout per request; a timeout surfaces as
// a PeerError of kind fetch.
type PeerClient interface {
	FetchUser(ctx context.Context, peer model.Supergroup, ref string) (*PeerUser, error)
}
