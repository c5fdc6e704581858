package inventory

import (
	invsvc "clubhub-backend/internal/application/inventory"
	"clubhub-backend/internal/middleware"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *invsvc.Service
}

// Create POST /api/v1/admin/resources
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body struct {
		LocationID string `json:"location_id"`
		Code       string `json:"code"`
		Name       string `json:"name"`
		Kind       string `json:"kind"`
		Capacity   int    `json:"capacity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var locationID *uuid.UUID
	if body.LocationID != "" {
		id, err := uuid.Parse(body.LocationID)
		if err != nil {
			return response.Error(c, "Invalid UUID format for location_id", 400, nil)
		}
		locationID = &id
	}

	unit, err := h.Service.CreateResource(c.Context(), invsvc.CreateResourceInput{
		OrgID:      actor.OrgID,
		LocationID: locationID,
		Code:       body.Code,
		Name:       body.Name,
		Kind:       body.Kind,
		Capacity:   body.Capacity,
	})
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.SuccessCreated(c, "Resource created", unit, nil)
}

// List GET /api/v1/admin/resources?kind=
func (h *Handlers) List(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	units, err := h.Service.ListResources(c.Context(), actor.OrgID, c.Query("kind"))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Resources retrieved", units, nil)
}

// UpdateStatus PATCH /api/v1/admin/resources/:id/status
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for resource id", 400, nil)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return response.Error(c, "status is required", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	unit, err := h.Service.UpdateStatus(c.Context(), id, actor.OrgID, body.Status)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Resource status updated", unit, nil)
}
