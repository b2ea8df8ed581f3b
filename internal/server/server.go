// Package server contains the HTTP handlers for the feed API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"minifeed/internal/auth"
	"minifeed/internal/config"
	"minifeed/internal/database"
	"minifeed/internal/media"
	"minifeed/internal/middleware"
	"minifeed/internal/models"
	"minifeed/internal/repository"
	"minifeed/internal/service"
	"minifeed/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-initialized collaborators a Server runs on.
// Redis may be nil when no component needs it.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Sessions session.Store
	Media    media.Store
	Clock    service.Clock
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	media          media.Store
	gate           *auth.Gate
	identity       *service.IdentityService
	posts          *service.PostService
	comments       *service.CommentService
	engagement     *service.EngagementService
}

// NewServerWithDeps wires repositories, services and the auth gate over deps.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}

	userRepo := repository.NewUserRepository(deps.DB)
	postRepo := repository.NewPostRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)

	engagement, err := service.NewEngagementService(postRepo, cfg.RepostMode, deps.Clock)
	if err != nil {
		return nil, err
	}
	identity := service.NewIdentityService(userRepo, cfg.BcryptCost, deps.Clock)

	gate, err := auth.NewGate(cfg.AuthMode, identity, deps.Sessions)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("minifeed-api"),
		media:          deps.Media,
		gate:           gate,
		identity:       identity,
		posts:          service.NewPostService(postRepo, cfg.FeedPageSize, deps.Clock),
		comments:       service.NewCommentService(commentRepo, postRepo, deps.Clock),
		engagement:     engagement,
	}, nil
}

// App builds the Fiber application once and returns it.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := 4 * 1024 * 1024
	if limit := int(s.config.MaxUploadBytes) + 1024*1024; limit > bodyLimit {
		bodyLimit = limit
	}

	app := fiber.New(fiber.Config{
		AppName:   "minifeed",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := models.HTTPStatus(err)
			if status >= fiber.StatusInternalServerError {
				middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			}
			return models.RespondWithError(c, status, err)
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// A panic fails only its own request.
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(middleware.RequestTimeout(s.config.RequestTimeout))
}

// limit wraps middleware.RateLimit so it is a no-op unless RATE_LIMIT_ENABLED.
func (s *Server) limit(n int, window time.Duration, name string) fiber.Handler {
	if !s.config.RateLimit {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return middleware.RateLimit(s.redis, n, window, name)
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/uploads/:ref", s.ServeUpload)

	api := app.Group("/api", middleware.SessionAuth(s.gate))

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", s.limit(5, 10*time.Minute, "signup"), s.Signup)
	authGroup.Post("/login", s.limit(10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/logout", middleware.RequireSession(), s.Logout)
	authGroup.Get("/me", middleware.RequireSession(), s.Me)

	api.Get("/feed", s.GetFeed)

	posts := api.Group("/posts")
	posts.Post("/", s.limit(30, time.Minute, "create_post"), s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id route.
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.limit(30, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/like", s.LikePost)
	posts.Post("/:id/repost", s.RepostPost)
	posts.Get("/:id", s.GetPost)

	users := api.Group("/users")
	users.Put("/me", middleware.RequireSession(), s.UpdateMyProfile)
	users.Get("/:username/posts", s.GetUserPosts)
	users.Get("/:username", s.GetUserProfile)

	admin := api.Group("/admin", middleware.RequireSession(), s.AdminRequired())
	admin.Get("/overview", s.AdminOverview)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and waits for in-flight ones within ctx.
// The database and Redis handles belong to the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		return err
	}
	middleware.Logger.Info("Server shutdown complete")
	return nil
}
