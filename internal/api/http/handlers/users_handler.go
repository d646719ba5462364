package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edge-gateway/internal/api/dto"
	"github.com/spec-kit/edge-gateway/internal/auth"
	"github.com/spec-kit/edge-gateway/internal/service"
	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

// UsersHandler exposes directory management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(users)})
}

// UpdateMe handles PATCH /api/users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNoToken()
	}

	var req dto.UpdateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.UpdateMe(c.Context(), principal.SubjectID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// AssignRole handles POST /api/users/:id/roles.
func (h *UsersHandler) AssignRole(c *fiber.Ctx) error {
	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Role == "" {
		return apperrors.NewValidationError("role required", nil)
	}

	user, err := h.users.AssignRole(c.Context(), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
