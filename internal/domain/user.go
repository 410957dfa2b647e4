package domain

import "time"

// Role is the single role assigned to a user. A user has exactly one role
// at any time.
type Role string

const (
	RoleNone  Role = "none"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a string to a known Role. Returns false for anything that
// is not one of the declared roles.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleNone, RoleUser, RoleAdmin:
		return Role(s), true
	}
	return RoleNone, false
}

// User represents a user account. PasswordHash never leaves the service
// boundary.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
