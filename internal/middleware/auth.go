package middleware

import (
	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/pkg/constants"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a resolved actor is in the session. Returns 401 with
// the standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// GetActor extracts the resolved actor (user id, org scope, management flag)
// from the session user. Returns nil when identity or org scope is missing
// or malformed.
func GetActor(c *fiber.Ctx) *domain.Actor {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return nil
	}
	userIDStr, _ := m["user_id"].(string)
	orgIDStr, _ := m["org_id"].(string)
	role, _ := m["role"].(string)

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	orgID, err := uuid.Parse(orgIDStr)
	if err != nil {
		return nil
	}
	return &domain.Actor{
		UserID:       userID,
		OrgID:        orgID,
		Role:         role,
		IsManagement: constants.IsManagementRole(role),
	}
}
