package reservations

import (
	"time"

	bookingsvc "clubhub-backend/internal/application/booking"
	ressvc "clubhub-backend/internal/application/reservations"
	"clubhub-backend/internal/middleware"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service      *ressvc.Service
	Orchestrator *bookingsvc.Orchestrator
}

// Create POST /api/v1/reservations converts a hold into a reservation and
// immediately drives the payment saga.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body struct {
		HoldID         string `json:"holdId"`
		IdempotencyKey string `json:"idempotencyKey"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.HoldID == "" || body.IdempotencyKey == "" {
		return response.Error(c, "holdId and idempotencyKey are required", 400, nil)
	}
	holdID, err := uuid.Parse(body.HoldID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for holdId", 400, nil)
	}

	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	reservation, err := h.Service.CreateReservation(c.Context(), holdID, *actor, body.IdempotencyKey)
	if err != nil {
		return middleware.RespondError(c, err)
	}

	outcome, err := h.Orchestrator.ProcessReservationPayment(c.Context(), reservation.ID, *actor, body.IdempotencyKey, getActorEmail(c))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.SuccessCreated(c, "Reservation created", outcome, nil)
}

// ListMy GET /api/v1/reservations/my
func (h *Handlers) ListMy(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.ListMyReservations(c.Context(), actor.OrgID, actor.UserID)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Reservations retrieved", list, nil)
}

// Get GET /api/v1/reservations/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for reservation id", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	reservation, err := h.Service.GetReservation(c.Context(), id, *actor)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Reservation retrieved", reservation, nil)
}

// Cancel POST /api/v1/reservations/:id/cancel
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for reservation id", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	reservation, err := h.Service.CancelReservation(c.Context(), id, *actor)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Reservation canceled", reservation, nil)
}

// ListOrg GET /api/v1/admin/reservations?status=
func (h *Handlers) ListOrg(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.ListOrgReservations(c.Context(), actor.OrgID, c.Query("status"))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Reservations retrieved", list, nil)
}

// OverrideConfirm POST /api/v1/admin/reservations/:id/override-confirm
func (h *Handlers) OverrideConfirm(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for reservation id", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	reservation, err := h.Service.OverrideConfirm(c.Context(), id, actor.OrgID)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Reservation confirmed", reservation, nil)
}

// OverrideCreate POST /api/v1/admin/reservations/override-create books
// directly in confirmed, bypassing the hold flow (walk-ins).
func (h *Handlers) OverrideCreate(c *fiber.Ctx) error {
	var body struct {
		UserID         string    `json:"user_id"`
		ResourceUnitID string    `json:"resource_unit_id"`
		StartsAt       time.Time `json:"startsAt"`
		EndsAt         time.Time `json:"endsAt"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.UserID == "" || body.ResourceUnitID == "" || body.StartsAt.IsZero() || body.EndsAt.IsZero() {
		return response.Error(c, "user_id, resource_unit_id, startsAt and endsAt are required", 400, nil)
	}
	userID, err := uuid.Parse(body.UserID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for user_id", 400, nil)
	}
	unitID, err := uuid.Parse(body.ResourceUnitID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for resource_unit_id", 400, nil)
	}

	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	reservation, err := h.Service.CreateOverrideReservation(c.Context(), ressvc.OverrideReservationInput{
		OrgID:          actor.OrgID,
		UserID:         userID,
		ResourceUnitID: unitID,
		StartsAt:       body.StartsAt,
		EndsAt:         body.EndsAt,
	})
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.SuccessCreated(c, "Reservation created", reservation, nil)
}

func getActorEmail(c *fiber.Ctx) string {
	m, ok := middleware.GetUser(c).(map[string]interface{})
	if !ok {
		return ""
	}
	email, _ := m["email"].(string)
	return email
}
