// Package server contains the HTTP handlers and routing for the blog.
package server

import (
	"context"
	"fmt"
	"time"

	"yatube/internal/bootstrap"
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/web"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
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
	views          fiber.Views
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.Limiter
	featureFlags   *featureflags.Manager
	postService    *service.PostService
	groupService   *service.GroupService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	cache.SetClient(redisClient)

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		views:          web.NewEngine(),
		promMiddleware: middleware.InitMetrics("yatube"),
		limiter:        middleware.NewLimiter(redisClient, cfg.Env),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		postService:    service.NewPostService(postRepo, groupRepo, userRepo, cfg.PostsPerPage),
		groupService:   service.NewGroupService(groupRepo),
		userService:    service.NewUserService(userRepo),
	}
	return server, nil
}

// SetViews replaces the template engine used by NewApp.
func (s *Server) SetViews(views fiber.Views) {
	s.views = views
}

// NewApp builds the fiber application with the server's views and error handler.
func (s *Server) NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "Yatube",
		Views:        s.views,
		ViewsLayout:  "layouts/base",
		ErrorHandler: s.errorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
}

// SetupMiddleware configures global middleware
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/metrics" || c.Path() == "/health/live" || c.Path() == "/health/ready"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))

	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:" + csrfField,
		CookieName:     "yatube_csrf",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		CookieSecure:   s.config.IsProduction(),
		Expiration:     2 * time.Hour,
		ContextKey:     csrfContextKey,
	}))
}

// SetupRoutes configures all routes. Fixed prefixes are registered before the
// catch-all username routes so that "/new/" is never read as a profile.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Use(s.Identify())

	app.Get("/", s.Index)

	auth := app.Group("/auth")
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", s.limiter.Limit(10, 5*time.Minute, "login"), s.Login)
	auth.Get("/signup/", s.signupEnabled, s.SignupForm)
	auth.Post("/signup/", s.signupEnabled, s.limiter.Limit(3, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/logout/", s.Logout)
	auth.Post("/logout/", s.Logout)

	app.Get("/groups/", s.Groups)
	app.Get("/group/:slug/", s.GroupPosts)

	app.Get("/new/", s.NewPostForm)
	app.Post("/new/", s.limiter.Limit(5, 5*time.Minute, "create_post"), s.CreatePost)

	app.Get("/:username/", s.Profile)
	app.Get("/:username/:post_id<int>/", s.PostView)
	app.Get("/:username/:post_id<int>/edit/", s.EditPostForm)
	app.Post("/:username/:post_id<int>/edit/", s.limiter.Limit(20, 5*time.Minute, "edit_post"), s.UpdatePost)
}

// LivenessCheck reports that the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Only the database decides
// readiness; a missing Redis is reported but tolerated.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
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
	app := s.NewApp()
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env, "rate_limits", s.limiter.Enabled())
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
