package model

// Role is the permission level of a user account. Roles are totally ordered:
// Default < Moderator < Administrator.
type Role string

const (
	RoleDefault       Role = "default"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
)

// roleRank maps each role to its position in the total order.
var roleRank = map[Role]int{
	RoleDefault:       0,
	RoleModerator:     1,
	RoleAdministrator: 2,
}

// AtLeast reports whether r satisfies a requirement of minimum. Equal roles
// satisfy a requirement of the same role.
func (r Role) AtLeast(minimum Role) bool {
	return roleRank[r] >= roleRank[minimum]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// PublicationStatus represents the lifecycle state of a publication.
type PublicationStatus string

const (
	PublicationStatusDraft     PublicationStatus = "draft"
	PublicationStatusPublished PublicationStatus = "published"
	PublicationStatusRetracted PublicationStatus = "retracted"
)

// ReviewStatus represents the state of a peer review.
type ReviewStatus string

const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusCompleted ReviewStatus = "completed"
)

// OriginLocal marks entities created on this service rather than imported
// from a federation peer. Imported entities carry the peer's service tag.
const OriginLocal = "local"
