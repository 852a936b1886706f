package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the response header carrying the request's RayID.
const HeaderName = "X-Ray-ID"

// New creates a middleware that assigns a unique RayID to every request.
// The ID is stored in the request locals under "ray_id" and echoed in
// the response headers so clients can reference it in support requests.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Honor an incoming ID from an upstream proxy if present
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Locals("ray_id", rid)
		c.Set(HeaderName, rid)

		return c.Next()
	}
}
