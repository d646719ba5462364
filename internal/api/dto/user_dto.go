package dto

import (
	"time"

	"github.com/spec-kit/edge-gateway/internal/domain"
)

// UserResponse is the safe user shape: the password hash never leaves the
// directory boundary.
type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	Roles         []string  `json:"roles"`
	Status        string    `json:"status"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewUserResponse sanitizes a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Roles:         roles,
		Status:        string(user.Status),
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}

// NewUserResponses sanitizes a list.
func NewUserResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}

// UpdateMeRequest payload for self-service profile updates.
type UpdateMeRequest struct {
	Name string `json:"name"`
}

// AssignRoleRequest payload for granting a role.
type AssignRoleRequest struct {
	Role string `json:"role"`
}
