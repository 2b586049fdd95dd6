// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	"quarry/internal/bootstrap"
	"quarry/internal/config"
	"quarry/internal/database"
	"quarry/internal/featureflags"
	"quarry/internal/mailer"
	"quarry/internal/middleware"
	"quarry/internal/models"
	"quarry/internal/repository"
	"quarry/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	flags          *featureflags.Manager

	userRepo    repository.UserRepository
	problemRepo repository.ProblemRepository
	commentRepo repository.CommentRepository

	authService       *service.AuthService
	problemService    *service.ProblemService
	engagementService *service.EngagementService
	userService       *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and no Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	problemRepo := repository.NewProblemRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	uow := repository.NewUnitOfWork(db)

	prom := middleware.InitMetrics("quarry-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       userRepo,
		problemRepo:    problemRepo,
		commentRepo:    commentRepo,
	}
	server.authService = service.NewAuthService(userRepo, mailer.New(cfg))
	server.problemService = service.NewProblemService(uow, problemRepo, commentRepo, userRepo)
	server.engagementService = service.NewEngagementService(uow)
	server.userService = service.NewUserService(userRepo, problemRepo)

	return server
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on errors.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/verify-otp", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "verify_otp"), s.VerifyOTP)
	auth.Post("/resend-otp", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "resend_otp"), s.ResendOTP)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/forgot-password", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "forgot_password"), s.ForgotPassword)
	auth.Post("/reset-password", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "reset_password"), s.ResetPassword)

	// Feature flag snapshot for clients; rollout flags evaluate per user.
	api.Get("/flags", middleware.OptionalAuth(s.config.JWTSecret), s.GetFlags)

	// Public problem routes. OptionalAuth lets listings carry the caller's
	// vote state when they are logged in.
	publicProblems := api.Group("/problems", middleware.OptionalAuth(s.config.JWTSecret))
	publicProblems.Get("/", s.GetProblems)
	publicProblems.Get("/:id/comments", s.GetComments)
	publicProblems.Get("/:id", s.GetProblem)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(s.config.JWTSecret))

	problems := protected.Group("/problems")
	problems.Post("/", middleware.RateLimit(
		s.redis, 2, 5*time.Minute, "create_problem"), s.CreateProblem)
	// Specific /:id/:resource routes before the generic /:id routes
	problems.Post("/:id/vote", middleware.RateLimit(
		s.redis, 30, time.Minute, "vote"), s.VoteProblem)
	problems.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	problems.Put("/:id", s.UpdateProblem)
	problems.Delete("/:id", s.DeleteProblem)

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/me/wallet", s.GetMyWallet)
	users.Get("/me/referrals", s.GetMyReferrals)
	users.Get("/me/problems", s.GetMyProblems)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The API degrades without Redis (no cache, no per-route limits)
		// but stays up; readiness reports it rather than failing.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Quarry API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, models.StatusForError(err), err)
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := database.Close(s.db); err != nil {
		log.Printf("error closing sql DB: %v", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
