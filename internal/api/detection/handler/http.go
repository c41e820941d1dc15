package detectionHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	detectionService "WorkHoursMonitor/internal/api/detection/service"
	"WorkHoursMonitor/internal/middleware"
	"WorkHoursMonitor/pkg/env"
	"WorkHoursMonitor/pkg/utils"
)

type DetectionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
	utils            utils.IUtils

	streamRate  rate.Limit
	streamBurst int
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
	utils utils.IUtils,
) *DetectionHandler {
	return &DetectionHandler{
		detectionService: ds,
		log:              log,
		validator:        validator,
		middleware:       middleware,
		utils:            utils,
		streamRate:       rate.Limit(env.GetEnvAsInt("FRAME_RATE_LIMIT", 10)),
		streamBurst:      env.GetEnvAsInt("FRAME_RATE_BURST", 20),
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	face := srv.Group("/face", h.middleware.NewTokenMiddleware)
	face.Post("/detect", h.middleware.NewRateLimiter, h.HandleDetectFace)
	face.Post("/process-frame", h.middleware.NewRateLimiter, h.HandleProcessFrame)

	face.Use("/ws", wsMiddleware)
	face.Get("/ws", websocket.New(h.handleFrameStream))
}
