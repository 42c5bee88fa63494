package model

// Role is the acting user's academic role. It is supplied by the identity
// provider per request and never stored by this service.
type Role int

const (
	RoleUnauthorized Role = iota
	RoleLecturer
	RoleHOD
	RoleDean
)

// ParseRole maps an identity-provider role claim to a Role. Unknown strings
// map to RoleUnauthorized rather than an error so callers branch in one place.
func ParseRole(s string) Role {
	switch s {
	case "LECTURER":
		return RoleLecturer
	case "HOD":
		return RoleHOD
	case "DEAN":
		return RoleDean
	default:
		return RoleUnauthorized
	}
}

func (r Role) String() string {
	switch r {
	case RoleLecturer:
		return "LECTURER"
	case RoleHOD:
		return "HOD"
	case RoleDean:
		return "DEAN"
	default:
		return "UNAUTHORIZED"
	}
}

// CanPropose reports whether the role may submit timetable edits at all.
func (r Role) CanPropose() bool {
	return r == RoleLecturer || r == RoleHOD || r == RoleDean
}

// CanWriteDirectly reports whether the role's commits bypass review.
func (r Role) CanWriteDirectly() bool {
	return r == RoleHOD || r == RoleDean
}

// CanReview reports whether the role may approve or reject pending changes.
func (r Role) CanReview() bool {
	return r == RoleHOD || r == RoleDean
}

// Identity is the acting user as supplied by the session provider.
type Identity struct {
	UserID string
	Role   Role
}
