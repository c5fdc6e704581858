package payments

import (
	paysvc "clubhub-backend/internal/application/payments"
	"clubhub-backend/internal/middleware"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *paysvc.Service
}

// ListMy GET /api/v1/payments/my
func (h *Handlers) ListMy(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Service.ListMyTransactions(c.Context(), actor.OrgID, actor.UserID)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Transactions retrieved", list, nil)
}

// Get GET /api/v1/payments/transactions/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for transaction id", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	txn, err := h.Service.GetTransaction(c.Context(), id, *actor)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Transaction retrieved", txn, nil)
}

// Refund POST /api/v1/admin/payments/:id/refund
func (h *Handlers) Refund(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid UUID format for transaction id", 400, nil)
	}
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	txn, err := h.Service.RefundPayment(c.Context(), id, actor.OrgID)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Transaction refunded", txn, nil)
}
