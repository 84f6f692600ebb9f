package model

import "time"

// User represents an account on this service. Users imported from a
// federation peer carry the peer's service tag in Origin and the peer-side
// identifier in ExternalRef; the (Origin, ExternalRef) pair is the stable key
// that makes author imports idempotent.
type User struct {
	ID           int64
	PublicID     string // UUID exposed over the API and to federation peers.
	Handle       string
	DisplayName  string
	Email        string
	PasswordHash string // Empty for imported users; they cannot log in here.
	Bio          string
	Role         Role
	Origin       string
	ExternalRef  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// IsImported reports whether the user originated on a federation peer.
func (u *User) IsImported() bool {
	return u.Origin != OriginLocal
}
