package service

import (
	"context"
	"errors"
	"slices"

	"github.com/spec-kit/edge-gateway/internal/auth"
	"github.com/spec-kit/edge-gateway/internal/domain"
	"github.com/spec-kit/edge-gateway/internal/events"
	"github.com/spec-kit/edge-gateway/internal/repository"
	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

// UserService exposes directory management operations.
type UserService struct {
	users repository.UserRepository
	bus   *events.Bus
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, bus *events.Bus) *UserService {
	return &UserService{users: users, bus: bus}
}

// List returns all directory users.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// UpdateMe applies a self-service profile patch.
func (s *UserService) UpdateMe(ctx context.Context, id, name string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AssignRole grants an additional role to a user. Role names outside the
// closed set are rejected up front rather than stored and silently ignored
// at permission resolution.
func (s *UserService) AssignRole(ctx context.Context, userID, role string) (*domain.User, error) {
	if !auth.IsRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	if !slices.Contains(user.Roles, role) {
		user.Roles = append(user.Roles, role)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	s.bus.Publish(events.EventRoleAssigned, events.RoleAssignedPayload{UserID: userID, Role: role})
	return user, nil
}
