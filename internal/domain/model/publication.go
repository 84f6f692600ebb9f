package model

import "time"

// Publication is a journal article shared on this service. Its body lives in
// revisions; the columns here mirror the latest revision for cheap listing.
type Publication struct {
	ID        int64
	PublicID  string
	OwnerID   int64
	Title     string
	Abstract  string
	Content   string
	Status    PublicationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Revision is one immutable version of a publication's content. Seq starts at
// 1 and increases by one per revision.
type Revision struct {
	ID            int64
	PublicationID int64
	Seq           int
	Title         string
	Abstract      string
	Content       string
	CreatedAt     time.Time
}
