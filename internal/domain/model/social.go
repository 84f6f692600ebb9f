package model

import "time"

// Follow is a directed edge in the follower graph.
type Follow struct {
	FollowerID int64
	FollowedID int64
	CreatedAt  time.Time
}

// Bookmark marks a publication saved by a user.
type Bookmark struct {
	UserID        int64
	PublicationID int64
	CreatedAt     time.Time
}
