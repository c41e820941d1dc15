package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/net/context"

	mongoDB "WorkHoursMonitor/database/mongo"
	"WorkHoursMonitor/database/postgres"
	authHandler "WorkHoursMonitor/internal/api/auth/handler"
	authRepository "WorkHoursMonitor/internal/api/auth/repository"
	authService "WorkHoursMonitor/internal/api/auth/service"
	detectionHandler "WorkHoursMonitor/internal/api/detection/handler"
	detectionService "WorkHoursMonitor/internal/api/detection/service"
	workSessionHandler "WorkHoursMonitor/internal/api/work_session/handler"
	workSessionRepository "WorkHoursMonitor/internal/api/work_session/repository"
	workSessionService "WorkHoursMonitor/internal/api/work_session/service"
	"WorkHoursMonitor/internal/middleware"
	"WorkHoursMonitor/internal/presence"
	"WorkHoursMonitor/pkg/bcrypt"
	"WorkHoursMonitor/pkg/clock"
	"WorkHoursMonitor/pkg/env"
	"WorkHoursMonitor/pkg/redis"
	"WorkHoursMonitor/pkg/utils"
	websocketPkg "WorkHoursMonitor/pkg/websocket"
)

type ServerOption func(*Server) error

type Server struct {
	engine        *fiber.App
	db            *sqlx.DB
	mongoClient   *mongo.Client
	mongoDB       *mongo.Database
	log           *logrus.Logger
	middleware    middleware.Middleware
	validator     *validator.Validate
	utils         utils.IUtils
	bcryptUtils   bcrypt.IBcrypt
	clock         clock.Clock
	handlers      []handler
	redisServer   redis.IRedis
	faceWebsocket websocketPkg.IWebsocket
	tracker       *presence.Tracker
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{clock: clock.Real()}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil || server.mongoDB == nil {
		return nil, fmt.Errorf("postgres and mongodb are required")
	}
	if server.faceWebsocket == nil {
		return nil, fmt.Errorf("face detection client is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithMongo() ServerOption {
	return func(s *Server) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client, db, err := mongoDB.New(ctx)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to MongoDB: %v", err)
			}
			return fmt.Errorf("failed to create mongodb connection: %w", err)
		}
		s.mongoClient = client
		s.mongoDB = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithWebSocket(webSocket websocketPkg.IWebsocket) ServerOption {
	return func(s *Server) error {
		s.faceWebsocket = webSocket
		return nil
	}
}

func WithClock(c clock.Clock) ServerOption {
	return func(s *Server) error {
		s.clock = c
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func (s *Server) RegisterHandler() error {
	// Auth Domain
	tokenTTL := env.GetEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour)
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, s.bcryptUtils, s.utils, tokenTTL)
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware)

	// Presence
	sessionRepo := workSessionRepository.New(s.mongoDB, s.log)
	trackerOpts := []presence.Option{
		presence.WithRetryPolicy(presence.RetryPolicyFromEnv()),
		presence.WithClock(s.clock),
	}
	if s.redisServer != nil {
		trackerOpts = append(trackerOpts, presence.WithReconciler(s.redisServer))
	}
	s.tracker = presence.New(sessionRepo, s.log, trackerOpts...)

	// Work Sessions
	location, err := time.LoadLocation(env.GetEnvAsString("REPORT_TIMEZONE", "UTC"))
	if err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
	}
	sessionOpts := []workSessionService.Option{
		workSessionService.WithClock(s.clock),
		workSessionService.WithLocation(location),
	}
	if s.redisServer != nil {
		sessionOpts = append(sessionOpts, workSessionService.WithReconciliationQueue(s.redisServer))
	}
	sessionServices := workSessionService.New(s.log, sessionRepo, s.tracker, authServices.User(), s.utils, sessionOpts...)
	sessionHandlers := workSessionHandler.New(s.log, s.validator, s.middleware, sessionServices)

	// Detection
	detectionServices := detectionService.NewDetectionService(s.log, s.faceWebsocket, s.tracker, s.utils, s.clock)
	detectionHandlers := detectionHandler.New(s.log, s.validator, s.middleware, detectionServices, s.utils)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := sessionRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure work session indexes: %w", err)
	}
	if _, err := sessionServices.ReportOrphanedSessions(ctx); err != nil {
		s.log.Warnf("Failed to count open work sessions: %v", err)
	}

	s.handlers = append(s.handlers, authHandlers, sessionHandlers, detectionHandlers)

	return nil
}

func (s *Server) Run() error {
	s.mountRoutes()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// mountRoutes installs the global middleware before any route so that the
// health check and metrics endpoints go through it as well.
func (s *Server) mountRoutes() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	s.engine.Use(s.middleware.NewMetricsMiddleware())

	s.setupHealthCheck()
	s.engine.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

// Shutdown drains HTTP traffic first so no tracker write starts after the
// stores are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.engine.ShutdownWithContext(ctx); err != nil {
		s.log.Errorf("Error shutting down HTTP server: %v", err)
	}

	if s.faceWebsocket != nil {
		s.faceWebsocket.CloseConnections()
	}
	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			s.log.Warnf("Error closing redis: %v", err)
		}
	}
	if s.mongoClient != nil {
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			s.log.Warnf("Error disconnecting mongodb: %v", err)
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		checks := fiber.Map{}
		if s.db != nil {
			checks["postgres"] = s.db.PingContext(c) == nil
		}
		if s.mongoClient != nil {
			checks["mongodb"] = s.mongoClient.Ping(c, nil) == nil
		}
		if s.faceWebsocket != nil {
			checks["face_detection"] = s.faceWebsocket.IsConnected()
		}
		if s.redisServer != nil {
			checks["redis"] = s.redisServer.Ping(c) == nil
		}

		activeTrackers := 0
		if s.tracker != nil {
			activeTrackers = s.tracker.ActiveCount()
		}

		return ctx.JSON(fiber.Map{
			"message":         "Server is Healthy!",
			"checks":          checks,
			"active_trackers": activeTrackers,
		})
	})
}
