package domain

import "time"

// UserStatus represents lifecycle states for a directory user.
type UserStatus string

const (
	UserStatusActive              UserStatus = "active"
	UserStatusBlocked             UserStatus = "blocked"
	UserStatusPendingVerification UserStatus = "pending_verification"
)

// User is the directory record the gateway authenticates against. Roles are
// kept as raw strings; unknown names are filtered at permission resolution.
type User struct {
	ID            string
	Email         string
	Name          string
	PasswordHash  string
	Roles         []string
	Status        UserStatus
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
