package middleware

import (
	"time"

	contextPkg "VisionGuide/pkg/context"
	"VisionGuide/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const RequestIDKey = contextPkg.RequestIDHeader

// NewRequestIDMiddleware echoes the caller's X-Request-ID or issues a ULID,
// and carries it on the request's user context for the service layer.
func NewRequestIDMiddleware() fiber.Handler {
	ids := utils.New()

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)
		if requestID == "" {
			var err error
			if requestID, err = ids.NewULIDFromTimestamp(time.Now()); err != nil {
				requestID = "unknown"
			}
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)
		c.SetUserContext(contextPkg.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}
