package model

import "time"

// Review is a peer review of a publication. Reviews imported from a
// federation peer carry the peer's service tag in Origin.
type Review struct {
	ID            int64
	PublicID      string
	PublicationID int64
	AuthorID      int64
	Summary       string
	Status        ReviewStatus
	Origin        string
	CreatedAt     time.Time
}

// Comment is a remark within a review, optionally anchored to a line range of
// a file in the review's content archive. Comments connected through ReplyTo
// share a ThreadID; the thread's root has ReplyTo == nil.
type Comment struct {
	ID          int64
	ReviewID    int64
	AuthorID    int64
	ThreadID    string // UUID shared by every comment in one thread.
	ReplyTo     *int64
	Filename    string
	AnchorStart *int
	AnchorEnd   *int
	Body        string
	PostedAt    time.Time
	CreatedAt   time.Time
}
