package constants

const (
	Superadmin = "superadmin"
	Admin      = "admin"
	Staff      = "staff"
	Member     = "member"
)

// ValidRoles is the set of allowed role values for a session user.
var ValidRoles = []string{Member, Staff, Admin, Superadmin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsManagementRole returns true for roles that may act on other members'
// holds and reservations.
func IsManagementRole(role string) bool {
	return role == Staff || role == Admin || role == Superadmin
}
