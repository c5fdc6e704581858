package availability

import (
	"time"

	availsvc "clubhub-backend/internal/application/availability"
	"clubhub-backend/internal/middleware"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *availsvc.Service
}

// Check GET /api/v1/reservations/availability?startsAt&endsAt&kind
func (h *Handlers) Check(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	startsAt, err := time.Parse(time.RFC3339, c.Query("startsAt"))
	if err != nil {
		return response.Error(c, "startsAt must be an RFC 3339 instant", 400, nil)
	}
	endsAt, err := time.Parse(time.RFC3339, c.Query("endsAt"))
	if err != nil {
		return response.Error(c, "endsAt must be an RFC 3339 instant", 400, nil)
	}

	result, err := h.Service.Check(c.Context(), actor.OrgID, startsAt, endsAt, c.Query("kind"))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Availability computed", result, fiber.Map{
		"startsAt": startsAt,
		"endsAt":   endsAt,
	})
}
