package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/edge-gateway/internal/api/dto"
	"github.com/spec-kit/edge-gateway/internal/auth"
	"github.com/spec-kit/edge-gateway/internal/events"
	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

// EventsHandler exposes the notification bus over HTTP.
type EventsHandler struct {
	bus *events.Bus
}

// NewEventsHandler constructs handler.
func NewEventsHandler(bus *events.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// Publish handles POST /api/events/publish. Publication is fire-and-forget,
// so the endpoint acknowledges with 202.
func (h *EventsHandler) Publish(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNoToken()
	}

	var req dto.PublishEventRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	ev := h.bus.Publish(events.EventGatewayTest, fiber.Map{
		"from":    principal.Email,
		"payload": req.Payload,
	})
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": ev})
}

// Recent handles GET /api/events/recent.
func (h *EventsHandler) Recent(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.bus.Recent()})
}
