package auth_test

import (
	"net/http/httptest"
	"testing"

	"catalog-sync/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(apiKey string) *fiber.App {
	app := fiber.New()
	app.Use(auth.New(auth.Config{ApiKey: apiKey}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		merchant, _ := c.Locals("merchant_id").(string)
		return c.JSON(fiber.Map{"merchant": merchant})
	})
	return app
}

func TestAuthValidKey(t *testing.T) {
	app := setupApp("secret")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-API-Key", "secret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthInvalidKey(t *testing.T) {
	app := setupApp("secret")

	tests := []struct {
		name string
		key  string
	}{
		{name: "wrong key", key: "guess"},
		{name: "missing key", key: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ping", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	app := setupApp("")

	req := httptest.NewRequest("GET", "/ping", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthForwardsMerchantID(t *testing.T) {
	app := setupApp("")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Merchant-ID", "m1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
