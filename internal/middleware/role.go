package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"WorkHoursMonitor/internal/entity"
	jwtPkg "WorkHoursMonitor/pkg/jwt"
)

// NewRoleMiddleware admits only users holding one of roles. It must run
// after NewTokenMiddleware.
func (m *middleware) NewRoleMiddleware(roles ...entity.UserRole) fiber.Handler {
	allowed := make(map[entity.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(ctx *fiber.Ctx) error {
		user, err := jwtPkg.GetUserLoginData(ctx)
		if err != nil {
			return unauthorized(ctx)
		}

		if _, ok := allowed[user.Role]; !ok {
			m.log.WithFields(logrus.Fields{
				"request_id": m.GetRequestID(ctx),
				"user_id":    user.ID,
				"role":       user.Role,
				"path":       ctx.Path(),
			}).Warn("Role not permitted")
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not enough permissions",
				"code":  "FORBIDDEN",
			})
		}

		return ctx.Next()
	}
}
