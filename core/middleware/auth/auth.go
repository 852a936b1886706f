package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// Config holds configuration for the auth middleware.
type Config struct {
	// ApiKey is the shared secret required to access the API.
	// If empty, authentication is disabled (local development).
	ApiKey string
}

// New creates a middleware that validates the X-API-Key header.
// The platform's authentication layer sits in front of this service
// and forwards the authenticated merchant in X-Merchant-ID; this
// middleware copies it into the request locals for handlers.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey != "" {
			key := c.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) != 1 {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid or missing API key",
				})
			}
		}

		if merchant := c.Get("X-Merchant-ID"); merchant != "" {
			c.Locals("merchant_id", merchant)
		}

		return c.Next()
	}
}
