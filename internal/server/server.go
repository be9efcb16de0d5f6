package server

import (
	"time"

	"corrcreate/internal/config"
	"corrcreate/internal/dataservice"
	"corrcreate/internal/handlers"
	"corrcreate/internal/session"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Server represents the application server
type Server struct {
	echo     *echo.Echo
	db       *sqlx.DB
	config   *config.Config
	logger   zerolog.Logger
	registry *session.Registry
	data     dataservice.Service
}

// New creates a new server instance
func New(cfg *config.Config, db *sqlx.DB, data dataservice.Service, registry *session.Registry, logger zerolog.Logger) *Server {
	return &Server{
		config:   cfg,
		db:       db,
		data:     data,
		registry: registry,
		logger:   logger,
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	// Hide Echo banner
	s.echo.HideBanner = true

	// Setup routes
	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	// API group with /api prefix
	api := s.echo.Group("/api")

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.db))

	// API endpoints under /api prefix
	api.GET("/", handlers.RootHandler(s.config.Version))

	api.POST("/sessions", handlers.CreateSessionHandler(s.registry, s.logger))
	api.GET("/sessions/:sid/state", handlers.GetStateHandler(s.registry))
	api.POST("/sessions/:sid/state", handlers.RestoreStateHandler(s.registry))

	api.POST("/sessions/:sid/items", handlers.CreateItemHandler(s.registry))
	api.DELETE("/sessions/:sid/items", handlers.DeleteItemsHandler(s.registry))
	api.POST("/sessions/:sid/items/:id/activate", handlers.ActivateItemHandler(s.registry))
	api.PATCH("/sessions/:sid/items/:id/fields", handlers.FieldChangeHandler(s.registry))
	api.POST("/sessions/:sid/items/:id/validate", handlers.ValidateItemHandler(s.registry))
	api.POST("/sessions/:sid/items/:id/email/open", handlers.OpenEmailFormHandler(s.registry))
	api.POST("/sessions/:sid/items/:id/email/preview", handlers.PreviewEmailHandler(s.registry))
	api.DELETE("/sessions/:sid/items/:id/email/recipients", handlers.RemoveRecipientHandler(s.registry))

	api.POST("/sessions/:sid/dispatch", handlers.DispatchHandler(s.registry))
	api.GET("/sessions/:sid/error", handlers.GetErrorHandler(s.registry))
	api.DELETE("/sessions/:sid/error", handlers.DismissErrorHandler(s.registry))
	api.GET("/email-value-help", handlers.EmailValueHelpHandler(s.data))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}
