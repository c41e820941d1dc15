package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"WorkHoursMonitor/internal/entity"
	jwtPkg "WorkHoursMonitor/pkg/jwt"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
)

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized, access token invalid or expired",
		"code":  "UNAUTHORIZED",
	})
}

// NewTokenMiddleware authenticates the bearer token. Websocket upgrades may
// pass it as the token query parameter instead, since browsers cannot set
// headers on them.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	var (
		userToken *jwt.Token
		err       error
	)

	if raw := ctx.Query("token"); raw != "" && ctx.Get(fiber.HeaderAuthorization) == "" {
		userToken, err = jwtPkg.ParseToken(raw, AccessTokenSecret)
	} else {
		userToken, err = jwtPkg.VerifyTokenHeader(ctx, AccessTokenSecret)
	}
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"path":      ctx.Path(),
			"client_ip": ctx.IP(),
			"error":     err.Error(),
		}).Warn("Token verification failed")
		return unauthorized(ctx)
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		return unauthorized(ctx)
	}

	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	if id == "" || email == "" || username == "" || !entity.UserRole(role).Valid() {
		m.log.WithFields(logrus.Fields{
			"path":  ctx.Path(),
			"error": "Token claims are missing required fields",
		}).Warn("Token claims check")
		return unauthorized(ctx)
	}

	ctx.Locals("user", entity.UserLoginData{
		ID:       id,
		Email:    email,
		Username: username,
		Role:     entity.UserRole(role),
	})

	return ctx.Next()
}
