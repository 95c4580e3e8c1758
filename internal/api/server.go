// Package api serves the input form and prediction lifecycle over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/genome360-risk-client/internal/domain"
	"github.com/genome360-risk-client/internal/health"
	"github.com/genome360-risk-client/internal/inputmodel"
	"github.com/genome360-risk-client/internal/metrics"
	"github.com/genome360-risk-client/internal/middleware"
	"github.com/genome360-risk-client/internal/orchestrator"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	model         *inputmodel.Model
	orchestrator  *orchestrator.Orchestrator
	metrics       *metrics.Collector
	health        *health.Checker
	logger        *logrus.Logger
	origins       []string
	router        *gin.Engine
	server        *http.Server
	upgrader      websocket.Upgrader
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request metrics and serves the exposition endpoint
// when metrics are enabled in configuration.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithHealthChecker serves readiness at /ready.
func WithHealthChecker(h *health.Checker) Option {
	return func(s *Server) {
		s.health = h
	}
}

// WithAllowedOrigins restricts CORS to the given origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, model *inputmodel.Model, orch *orchestrator.Orchestrator, opts ...Option) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		configManager: configManager,
		model:         model,
		orchestrator:  orch,
		logger:        logrus.StandardLogger(),
		router:        gin.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	var observer middleware.RequestObserver
	if s.metrics != nil {
		observer = s.metrics
	}
	s.router.Use(middleware.CorrelationID())
	s.router.Use(middleware.AccessLog(s.logger, observer))
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(s.origins...))

	s.setupRoutes(cfg)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes(cfg *domain.Config) {
	s.router.GET("/health", s.handleHealth)
	if s.health != nil {
		s.router.GET("/ready", s.handleReady)
	}

	if s.metrics != nil && cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/fields", s.handleListFields)
		v1.PATCH("/fields", s.handleApplyFields)
		v1.POST("/fields/reset", s.handleResetFields)
		v1.GET("/fields/:name", s.handleGetField)
		v1.PUT("/fields/:name", s.handleSetField)

		v1.GET("/snapshot", s.handleSnapshot)
		v1.POST("/predict", s.handlePredict)
		v1.GET("/result", s.handleResult)
		v1.GET("/history", s.handleHistory)
		v1.GET("/history/:id", s.handleHistoryEntry)
		v1.GET("/events", s.handleEvents)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"state":     s.orchestrator.State(),
		"in_flight": s.orchestrator.InFlight(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	status := s.health.Run(c.Request.Context())
	c.JSON(status.HTTPStatus(), status)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range s.origins {
		if o == origin {
			return true
		}
	}
	return false
}

func errorResponse(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{
		"error":          message,
		"correlation_id": c.GetString("correlation_id"),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}
