package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user.registered"
	EventUserLoggedIn   EventType = "user.logged_in"
	EventUserLoggedOut  EventType = "user.logged_out"
	EventRoleAssigned   EventType = "rbac.role_assigned"
	EventTokenRevoked   EventType = "token.revoked"
	EventGatewayTest    EventType = "gateway.test"
)

// Event is a notification published on the bus.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"ts"`
}

// UserPayload identifies the user an auth event concerns.
type UserPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// RoleAssignedPayload payload.
type RoleAssignedPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// TokenRevokedPayload payload.
type TokenRevokedPayload struct {
	TokenID   string `json:"token_id"`
	SubjectID string `json:"subject_id"`
}
