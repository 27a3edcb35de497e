package domain

// Role is the participant's capability tag. Capabilities are derived from
// the role rather than stored as independent flags, so an owner can never
// end up without queue permission.
type Role string

const (
	// RoleGuest can watch and report playback position.
	RoleGuest Role = "guest"
	// RoleMember additionally holds queue permission.
	RoleMember Role = "member"
	// RoleOwner holds queue permission plus administrative rights.
	RoleOwner Role = "owner"
)

func (r Role) IsOwner() bool {
	return r == RoleOwner
}

// CanEditQueue reports whether the role carries queue permission: the
// capability to mutate the queue, control playback and trigger skip.
func (r Role) CanEditQueue() bool {
	return r == RoleMember || r == RoleOwner
}
