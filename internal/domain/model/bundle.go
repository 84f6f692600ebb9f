package model

import "time"

// ExternalAuthorRef identifies a user known to a federation peer: an opaque
// peer-side identifier plus the originating service's tag. Handle and
// DisplayName travel with the reference so an author can be materialized
// locally without a second fetch in the common case.
type ExternalAuthorRef struct {
	Ref         string `json:"ref"`
	Service     string `json:"service"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

// Key returns the stable identity of the reference, ignoring the mutable
// handle and display name.
func (r ExternalAuthorRef) Key() AuthorKey {
	return AuthorKey{Service: r.Service, Ref: r.Ref}
}

// AuthorKey is the comparable identity of an external author reference.
type AuthorKey struct {
	Service string
	Ref     string
}

// Anchor is a line range within an archive file. Start and End are 1-based;
// End may extend one line past the last line of the file, denoting "through
// end of file".
type Anchor struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// BundleComment is a comment in its foreign, pre-import wire form. IDs are
// only unique within one bundle; Replying references another comment's ID in
// the same bundle, or is absent for a thread root.
type BundleComment struct {
	ID       int64             `json:"id"`
	Replying *int64            `json:"replying,omitempty"`
	Filename string            `json:"filename,omitempty"`
	Anchor   *Anchor           `json:"anchor,omitempty"`
	Contents string            `json:"contents"`
	Author   ExternalAuthorRef `json:"author"`
	PostedAt time.Time         `json:"postedAt"`
}

// ReviewBundle is a federation-import payload: one review's metadata plus its
// flattened comment list. The accompanying content archive travels separately.
type ReviewBundle struct {
	PublicationID string            `json:"publicationId"` // Public UUID of the local publication under review.
	Summary       string            `json:"summary"`
	Author        ExternalAuthorRef `json:"author"`
	Comments      []BundleComment   `json:"comments"`
}
