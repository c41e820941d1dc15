package authHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	authService "WorkHoursMonitor/internal/api/auth/service"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/internal/middleware"
)

type AuthHandler struct {
	log         *logrus.Logger
	authService authService.AuthService
	validator   *validator.Validate
	middleware  middleware.Middleware
}

func New(
	log *logrus.Logger,
	as authService.AuthService,
	validate *validator.Validate,
	middleware middleware.Middleware) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: as,
		validator:   validate,
		middleware:  middleware,
	}
}

func (h *AuthHandler) Start(srv fiber.Router) {
	managerOrAdmin := h.middleware.NewRoleMiddleware(entity.RoleManager, entity.RoleAdmin)
	adminOnly := h.middleware.NewRoleMiddleware(entity.RoleAdmin)

	auth := srv.Group("/auth")
	auth.Post("/register", h.HandleRegister)
	auth.Post("/login", h.HandleLogin)
	auth.Post("/logout", h.middleware.NewTokenMiddleware, h.HandleLogout)
	auth.Get("/me", h.middleware.NewTokenMiddleware, h.HandleGetMe)

	users := srv.Group("/users", h.middleware.NewTokenMiddleware)
	users.Get("/", managerOrAdmin, h.HandleListUsers)
	users.Get("/:id", h.HandleGetUser)
	users.Put("/:id", managerOrAdmin, h.HandleUpdateUser)
	users.Delete("/:id", adminOnly, h.HandleDeleteUser)
	users.Patch("/:id/shift", managerOrAdmin, h.HandleUpdateShift)

	// Registered per route: the /managers and /admin prefixes also carry the
	// session report groups, and group middleware applies to the whole prefix.
	srv.Get("/managers/employees", h.middleware.NewTokenMiddleware, managerOrAdmin, h.HandleListEmployees)
	srv.Post("/managers/employees", h.middleware.NewTokenMiddleware, managerOrAdmin, h.HandleCreateEmployee)
	srv.Get("/admin/users", h.middleware.NewTokenMiddleware, adminOnly, h.HandleListUsers)

	srv.Get("/employees/dashboard",
		h.middleware.NewTokenMiddleware,
		h.middleware.NewRoleMiddleware(entity.RoleEmployee),
		h.HandleGetDashboard)
}
