package workSessionHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	workSessionService "WorkHoursMonitor/internal/api/work_session/service"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/internal/middleware"
)

type WorkSessionHandler struct {
	log                *logrus.Logger
	validator          *validator.Validate
	middleware         middleware.Middleware
	workSessionService workSessionService.IWorkSessionService
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ws workSessionService.IWorkSessionService,
) *WorkSessionHandler {
	return &WorkSessionHandler{
		log:                log,
		validator:          validator,
		middleware:         middleware,
		workSessionService: ws,
	}
}

func (h *WorkSessionHandler) Start(srv fiber.Router) {
	sessions := srv.Group("/work-sessions", h.middleware.NewTokenMiddleware)
	sessions.Post("/start", h.HandleStartSession)
	sessions.Post("/end/:id", h.HandleEndSession)
	sessions.Get("/active", h.HandleGetActiveSession)
	sessions.Get("/status", h.HandleGetMonitoringStatus)
	sessions.Get("/history", h.HandleGetHistory)
	sessions.Get("/work-hours", h.HandleGetDailyWorkHours)
	sessions.Get("/shift", h.HandleGetShiftInfo)
	sessions.Get("/:id", h.HandleGetSession)

	managers := srv.Group("/managers",
		h.middleware.NewTokenMiddleware,
		h.middleware.NewRoleMiddleware(entity.RoleManager, entity.RoleAdmin))
	managers.Get("/work-hours", h.HandleGetTeamWorkHours)
	managers.Get("/employees/:id/work-hours", h.HandleGetEmployeeWorkHours)

	admin := srv.Group("/admin",
		h.middleware.NewTokenMiddleware,
		h.middleware.NewRoleMiddleware(entity.RoleAdmin))
	admin.Get("/work-hours", h.HandleGetAdminWorkHours)
	admin.Get("/calendar", h.HandleGetCalendar)
	admin.Get("/statistics", h.HandleGetStatistics)
	admin.Get("/reconciliation", h.HandleGetReconciliation)
}
