// Package server
//
// @title AdSpot API
// @version 1.0
// @description Billboard catalog, contact and admin API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/auth"
	"github.com/adspot-dev/adspot/internal/catalog"
	"github.com/adspot-dev/adspot/internal/config"
	"github.com/adspot-dev/adspot/internal/content"
	"github.com/adspot-dev/adspot/internal/database"
	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/inquiries"
	"github.com/adspot-dev/adspot/internal/metrics"
	"github.com/adspot-dev/adspot/internal/models"
	"github.com/adspot-dev/adspot/internal/roles"
	"github.com/adspot-dev/adspot/internal/suggest"
	"github.com/adspot-dev/adspot/internal/tasks"
)

// ImageStore uploads billboard images
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	tokens    *auth.Tokens
	bus       events.Bus
	roles     *roles.Store
	catalog   *catalog.Service
	inquiries *inquiries.Service
	about     *content.Store
	suggest   *suggest.Service
	images    ImageStore
	version   string

	enqueuer    inquiries.Enqueuer
	generator   suggest.Generator
	asynqClient *asynq.Client
}

// Option configures a Server
type Option func(*Server)

// WithDB uses an already opened database
func WithDB(db *gorm.DB) Option {
	return func(s *Server) { s.db = db }
}

// WithBus uses the given event bus instead of one built from config
func WithBus(bus events.Bus) Option {
	return func(s *Server) { s.bus = bus }
}

// WithEnqueuer uses the given task enqueuer instead of an Asynq client
func WithEnqueuer(e inquiries.Enqueuer) Option {
	return func(s *Server) { s.enqueuer = e }
}

// WithGenerator sets the suggestion generator. Without one, suggestions
// answer 503.
func WithGenerator(g suggest.Generator) Option {
	return func(s *Server) { s.generator = g }
}

// WithImageStore sets where uploaded images go. Without one, uploads
// answer 503.
func WithImageStore(store ImageStore) Option {
	return func(s *Server) { s.images = store }
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	s := &Server{
		config:  cfg,
		logger:  zlog,
		version: version,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.db == nil {
		db, err := database.Open(cfg.Database.URL, zlog)
		if err != nil {
			return nil, err
		}
		s.db = db
	}

	// Load JWT secret from database (auto-generated during first setup)
	s.tokens = auth.NewTokens("", cfg.Auth.TokenTTL)
	var appConfig models.Config
	if err := s.db.First(&appConfig).Error; err == nil {
		s.tokens.SetSecret(appConfig.JWTSecret)
		zlog.Debug().Msg("Loaded JWT secret from database")
	} else {
		zlog.Info().Msg("No config found - JWT will be initialized during first setup")
	}

	if s.bus == nil {
		bus, err := newBus(cfg, zlog)
		if err != nil {
			return nil, err
		}
		s.bus = bus
	}

	if s.enqueuer == nil && cfg.Relay.URL != "" {
		// Asynq client for enqueueing inquiry forwards
		s.asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		})
		s.enqueuer = tasks.NewEnqueuer(s.asynqClient, cfg.Relay.MaxAttempts)
	}

	s.roles = roles.NewStore(s.db, s.bus, zlog)
	s.catalog = catalog.NewService(s.db, s.bus, zlog)
	s.about = content.NewStore(s.db)
	s.suggest = suggest.NewService(s.generator, zlog)

	var inquiryOpts []inquiries.Option
	if s.enqueuer != nil {
		inquiryOpts = append(inquiryOpts, inquiries.WithEnqueuer(s.enqueuer))
	}
	s.inquiries = inquiries.NewService(s.db, zlog, inquiryOpts...)

	if n, err := s.catalog.Migrate(context.Background()); err != nil {
		zlog.Warn().Err(err).Msg("Failed to migrate legacy billboards")
	} else if n > 0 {
		zlog.Info().Int("count", n).Msg("Legacy billboards migrated")
	}

	s.setupRouter()

	return s, nil
}

func newBus(cfg *config.Config, zlog zerolog.Logger) (events.Bus, error) {
	if cfg.Events.NATSURL == "" {
		zlog.Info().Msg("NATS_URL not set - using in-process event bus")
		return events.NewMemoryBus(), nil
	}
	bus, err := events.NewNATSBus(cfg.Events.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	zlog.Info().Str("url", cfg.Events.NATSURL).Msg("Connected to NATS event bus")
	return bus, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check and metrics (no auth required)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Admin live view, guarded for the lifetime of the connection
	s.router.GET("/admin/stream", s.adminStream)

	// Public API
	public := s.router.Group("/api")
	{
		public.GET("/billboards", s.listPublicBillboards)
		public.GET("/billboards/:id", s.getPublicBillboard)
		public.GET("/about", s.getAbout)
		public.POST("/inquiries", s.submitInquiry)
		public.POST("/suggestions", s.suggestLocations)

		public.POST("/setup", s.setupFirstAdmin)
		public.POST("/auth/login", s.login)
	}

	// Authenticated API routes (JWT required)
	authed := s.router.Group("/api/auth")
	authed.Use(JWTAuthMiddleware(s.db, s.tokens, s.logger))
	{
		authed.GET("/me", s.getCurrentUser)
		authed.POST("/logout", s.logout)
	}

	// Admin API routes (admin access guard)
	admin := s.router.Group("/api/admin")
	admin.Use(AdminAccessMiddleware(s.db, s.tokens, s.roles, s.logger))
	{
		admin.GET("/billboards", s.listBillboards)
		admin.POST("/billboards", s.createBillboard)
		admin.GET("/billboards/:id", s.getBillboard)
		admin.PUT("/billboards/:id", s.updateBillboard)
		admin.DELETE("/billboards/:id", s.deleteBillboard)
		admin.POST("/billboards/:id/pause", s.toggleBillboardPause)
		admin.POST("/billboards/:id/images", s.uploadBillboardImage)

		admin.GET("/inquiries", s.listInquiries)

		admin.GET("/about", s.getAbout)
		admin.PUT("/about", s.updateAbout)

		admin.GET("/roles", s.listRoles)
		admin.PUT("/roles/:userId", s.grantRole)
		admin.DELETE("/roles/:userId", s.revokeRole)

		admin.GET("/config", s.getConfig)
		admin.PATCH("/config", s.updateConfig)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		metrics.RecordRequest(c.Request.Method, c.FullPath(), c.Writer.Status())

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "adspot-api",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := ":" + s.config.HTTP.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// WriteTimeout stays zero: the admin stream is long-lived
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Admin streams never go idle; ending their contexts lets Shutdown finish
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv.BaseContext = func(net.Listener) context.Context { return baseCtx }
	srv.RegisterOnShutdown(cancelBase)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		s.Close()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.Close()
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Close releases the event bus, the Asynq client and the database
func (s *Server) Close() {
	if s.asynqClient != nil {
		if err := s.asynqClient.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Asynq client")
		}
	}
	if err := s.bus.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing event bus")
	}
	database.Close(s.db, s.logger)
}
