package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/env"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewTokenMiddleware(ctx *fiber.Ctx) error
	NewRoleMiddleware(roles ...entity.UserRole) fiber.Handler
	NewRequestIDMiddleware() fiber.Handler
	NewLoggingMiddleware() fiber.Handler
	NewMetricsMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type middleware struct {
	rateLimitter        *rateLimiter
	requestIDMiddleware fiber.Handler
	log                 *logrus.Logger
}

// New builds the shared middleware set. FRAME_RATE_LIMIT and
// FRAME_RATE_BURST bound how many frames per second one client IP may push.
func New(logger *logrus.Logger) Middleware {
	limit := env.GetEnvAsInt("FRAME_RATE_LIMIT", 10)
	burst := env.GetEnvAsInt("FRAME_RATE_BURST", 20)

	return &middleware{
		rateLimitter:        newRateLimiter(rate.Limit(limit), burst),
		requestIDMiddleware: NewRequestIDMiddleware(),
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}
