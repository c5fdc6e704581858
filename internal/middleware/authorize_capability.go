package middleware

import (
	"clubhub-backend/internal/pkg/constants"
	"clubhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthorizeCapability returns a handler that checks the session user's role
// against CapabilityRoles. Unconfigured capability -> 500 "Capability
// configuration error"; role not allowed -> 403.
func AuthorizeCapability(capability string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		role := getRoleFromUser(user)
		if role == "" {
			return response.Error(c, "Authorization error", 500, nil)
		}
		roles, ok := constants.CapabilityRoles[capability]
		if !ok || len(roles) == 0 {
			return response.Error(c, "Capability configuration error", 500, nil)
		}
		if !constants.AllowedRole(capability, role) {
			return response.Error(c, "User is Forbidden from performing this action", 403, nil)
		}
		return c.Next()
	}
}

func getRoleFromUser(user interface{}) string {
	m, ok := user.(map[string]interface{})
	if !ok {
		return ""
	}
	r, _ := m["role"].(string)
	return r
}
