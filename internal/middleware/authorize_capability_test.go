package middleware

import (
	"net/http/httptest"
	"testing"

	"clubhub-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capabilityApp(capability, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals("user", map[string]interface{}{
				"user_id": uuid.New().String(),
				"org_id":  uuid.New().String(),
				"role":    role,
			})
		}
		return c.Next()
	})
	app.Get("/guarded", AuthorizeCapability(capability), func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	return app
}

func TestAuthorizeCapability_RoleMatrix(t *testing.T) {
	cases := []struct {
		capability string
		role       string
		want       int
	}{
		{constants.ManageResources, "admin", 200},
		{constants.ManageResources, "superadmin", 200},
		{constants.ManageResources, "staff", 403},
		{constants.ManageResources, "member", 403},
		{constants.ManageReservations, "staff", 200},
		{constants.ManageReservations, "member", 403},
		{constants.RefundPayments, "admin", 200},
		{constants.RefundPayments, "staff", 403},
		{constants.ViewFinance, "staff", 200},
		{constants.ViewData, "member", 200},
	}
	for _, tc := range cases {
		app := capabilityApp(tc.capability, tc.role)
		resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, "%s as %s", tc.capability, tc.role)
	}
}

func TestAuthorizeCapability_NoUser(t *testing.T) {
	app := capabilityApp(constants.ManageResources, "")
	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAuthorizeCapability_UnknownCapability(t *testing.T) {
	app := capabilityApp("launch_rockets", "admin")
	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}
