// Package server is a local stand-in for the art commerce admin API. It
// implements every endpoint the CLI consumes with cookie sessions, optional
// TOTP, and SQLite storage.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/art-vbst/art-admin/internal/assert"
	"github.com/art-vbst/art-admin/internal/auth"
	"github.com/art-vbst/art-admin/internal/config"
	"github.com/art-vbst/art-admin/internal/models"
	"github.com/art-vbst/art-admin/internal/sysinfo"
)

var totpPattern = regexp.MustCompile(`^[0-9]{6}$`)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    config.DevServerConfig
	logger    zerolog.Logger
	validator *validator.Validate
	tokens    *auth.Issuer
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg.DevServer.DatabaseURL, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret := cfg.DevServer.JWTSecret
	if secret == "" {
		secret, err = randomHex(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		assert.Length(secret, 64)
		zlog.Info().Msg("No DEVSERVER_JWT_SECRET set - sessions will not survive a restart")
	}

	if err := os.MkdirAll(cfg.DevServer.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	server := &Server{
		db:        db,
		config:    cfg.DevServer,
		logger:    zlog,
		validator: newValidator(),
		tokens:    auth.NewIssuer(secret),
		version:   version,
	}

	if err := server.seedAdmin(); err != nil {
		return nil, err
	}
	if cfg.DevServer.SeedData {
		if err := server.seedSampleData(); err != nil {
			return nil, err
		}
	}

	server.setupRouter()

	return server, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()

	// A one-time code is exactly six digits
	validate.RegisterValidation("totp", func(fl validator.FieldLevel) bool {
		return totpPattern.MatchString(fl.Field().String())
	})

	return validate
}

// initDatabase opens the SQLite database and applies connection settings
func initDatabase(url string, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns = 1 // shared-cache in-memory databases need a single writer
		busyTimeout  = 5000
	)

	db, err := gorm.Open(sqlite.Open(url), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys=1",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

func allowedOrigins(configured []string) []string {
	var origins []string
	for _, o := range configured {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// Credentialed CORS for the browser dashboard. cors panics on an empty
	// origin list, so the middleware is skipped when none are configured.
	if origins := allowedOrigins(s.config.AllowOrigins); len(origins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.router.GET("/health", s.healthCheck)
	s.router.Static("/uploads", s.config.UploadDir)

	// Public auth endpoints
	authRoutes := s.router.Group("/auth")
	{
		authRoutes.POST("/login", s.login)
		authRoutes.POST("/totp", s.verifyTOTP)
		authRoutes.GET("/refresh", s.refresh)
		authRoutes.POST("/refresh", s.refresh)
		authRoutes.POST("/logout", s.logout)
	}

	// Authenticated routes (access cookie required)
	api := s.router.Group("")
	api.Use(CookieAuthMiddleware(s.db, s.tokens, s.logger))
	{
		api.GET("/auth/me", s.getCurrentUser)

		api.GET("/artworks", s.listArtworks)
		api.POST("/artworks", s.createArtwork)
		api.GET("/artworks/:id", s.getArtwork)
		api.PUT("/artworks/:id", s.updateArtwork)
		api.PATCH("/artworks/:id", s.updateArtwork)
		api.DELETE("/artworks/:id", s.deleteArtwork)

		api.GET("/artworks/:id/images", s.listImages)
		api.GET("/artworks/:id/images/:imageId", s.getImage)
		api.PATCH("/artworks/:id/images/:imageId", s.updateImage)
		api.DELETE("/artworks/:id/images/:imageId", s.deleteImage)
		api.POST("/images", s.uploadImage)

		api.GET("/orders", s.listOrders)
		api.GET("/orders/:id", s.getOrder)
		api.PATCH("/orders/:id", s.updateOrder)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	metrics, err := sysinfo.GetMetrics(s.config.UploadDir)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to collect metrics")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "artadmin-devserver",
		"version":   s.version,
		"metrics":   metrics,
	})
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
