package holds

import (
	"time"

	holdsvc "clubhub-backend/internal/application/holds"
	"clubhub-backend/internal/middleware"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *holdsvc.Service
}

// Create POST /api/v1/reservations/holds
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body struct {
		ResourceUnitID string    `json:"resource_unit_id"`
		StartsAt       time.Time `json:"startsAt"`
		EndsAt         time.Time `json:"endsAt"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.ResourceUnitID == "" || body.StartsAt.IsZero() || body.EndsAt.IsZero() {
		return response.Error(c, "resource_unit_id, startsAt and endsAt are required", 400, nil)
	}
	unitID, err := uuid.Parse(body.ResourceUnitID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for resource_unit_id", 400, nil)
	}

	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	hold, err := h.Service.CreateHold(c.Context(), holdsvc.CreateHoldInput{
		OrgID:          actor.OrgID,
		UserID:         actor.UserID,
		ResourceUnitID: unitID,
		StartsAt:       body.StartsAt,
		EndsAt:         body.EndsAt,
	})
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.SuccessCreated(c, "Hold created", hold, nil)
}

// Get GET /api/v1/reservations/holds/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for hold id", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	hold, err := h.Service.GetHold(c.Context(), id, actor.OrgID)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Hold retrieved", hold, nil)
}

// ListMy GET /api/v1/reservations/holds/my
func (h *Handlers) ListMy(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.ListMyHolds(c.Context(), actor.OrgID, actor.UserID)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Holds retrieved", list, nil)
}

// Release POST /api/v1/reservations/holds/:id/release
func (h *Handlers) Release(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for hold id", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	hold, err := h.Service.ReleaseHold(c.Context(), id, *actor)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Hold released", hold, nil)
}
