package domain

import "time"

// Role enumerates principal roles.
type Role string

const (
	RoleCitizen Role = "CITIZEN"
	RoleStaff   Role = "STAFF"
	RoleAdmin   Role = "ADMIN"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleCitizen, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User is the stored record behind an authenticated principal. Citizens are
// provisioned lazily on first sign-in; staff accounts are created by admins.
type User struct {
	ID           string
	ExternalUID  string
	Name         string
	Email        string
	AvatarURL    *string
	Role         Role
	IsPremium    bool
	IsBlocked    bool
	IssueCount   int
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
