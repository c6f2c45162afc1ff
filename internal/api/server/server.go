package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "voicescribe/docs" // swagger spec registration
	"voicescribe/internal/api/middleware"
	"voicescribe/internal/api/v1/handlers"
	v1routes "voicescribe/internal/api/v1/routes"
	"voicescribe/internal/api/v1/services"
)

// Config represents API server configuration
type Config struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxUploadBytes  int64
	Environment     string
	Version         string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// DefaultConfig returns server defaults. WriteTimeout stays zero because
// event streams are long lived.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            "8081",
		ReadTimeout:     5 * time.Minute,
		IdleTimeout:     2 * time.Minute,
		MaxUploadBytes:  32 << 20,
		Environment:     "development",
		Version:         "dev",
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: 15 * time.Second,
	}
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new API server
func NewServer(config Config, container *v1routes.ServiceContainer, health services.HealthService, logger *slog.Logger) *Server {
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// multipart parts above this size spill to temp files instead of memory
	router.MaxMultipartMemory = config.MaxUploadBytes

	cors := middleware.DefaultCORSConfig()
	if len(config.AllowedOrigins) > 0 {
		cors.AllowOrigins = config.AllowedOrigins
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cors))

	router.GET("/health", handlers.NewHealthHandler(health, config.Version).Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if container.Logger == nil {
		container.Logger = logger
	}
	v1routes.RegisterRoutes(router.Group("/api/v1"), container)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":       "voicescribe API",
			"version":       config.Version,
			"documentation": "/swagger/index.html",
			"endpoints": gin.H{
				"health":         "/health",
				"metrics":        "/metrics",
				"transcriptions": "/api/v1/transcriptions",
				"usage":          "/api/v1/user/usage",
			},
		})
	})

	httpServer := &http.Server{
		Addr:         config.Host + ":" + config.Port,
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config:     config,
		router:     router,
		httpServer: httpServer,
		logger:     logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting API server",
		"address", s.httpServer.Addr,
		"environment", s.config.Environment,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	s.logger.Info("API server shutdown complete")
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
