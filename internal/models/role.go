package models

// Role is the access level of a console user
type Role string

// Role constants
const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// In reports whether r is contained in roles
func (r Role) In(roles []Role) bool {
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}

// RoleInfo describes a role for the roles administration page
type RoleInfo struct {
	Name        Role   `json:"name"`
	Description string `json:"description"`
}
