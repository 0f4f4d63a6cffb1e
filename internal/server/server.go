// Package server exposes the selector over HTTP with gin.
//
// gin's path parameters stand in for the routing layer: the paths
// /:controller, /:controller/:action and /:controller/:action/:id, plus an
// optional "area" query parameter, become the request's route values.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avadispatch/internal/health"
	"github.com/vyrodovalexey/avadispatch/internal/observability"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
	"github.com/vyrodovalexey/avadispatch/internal/selector"
	"github.com/vyrodovalexey/avadispatch/internal/server/middleware"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Dispatcher selects the endpoint for a request.
type Dispatcher interface {
	Dispatch(req *http.Request, values routevalue.Values) (*selector.Result, error)
}

// Config holds configuration for the HTTP server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string
}

// Server is the dispatcher's HTTP front-end.
type Server struct {
	engine         *gin.Engine
	httpServer     *http.Server
	dispatcher     Dispatcher
	logger         observability.Logger
	tracer         *observability.Tracer
	metricsHandler http.Handler
	health         *health.Checker
	config         Config
	mu             sync.Mutex
	running        bool
}

// Option is a functional option for the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracer enables request and dispatch spans.
func WithTracer(tracer *observability.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithMetricsHandler serves handler on Config.MetricsPath.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = handler
	}
}

// WithHealthChecker serves liveness on /healthz and readiness on /readyz
// from checker.
func WithHealthChecker(checker *health.Checker) Option {
	return func(s *Server) {
		s.health = checker
	}
}

// New creates a server that dispatches through dispatcher.
func New(dispatcher Dispatcher, cfg Config, opts ...Option) *Server {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:     gin.New(),
		dispatcher: dispatcher,
		logger:     observability.NopLogger(),
		config:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(
		middleware.RequestID(),
		middleware.Tracing(s.tracer, s.config.MetricsPath, "/healthz", "/readyz"),
		middleware.Logging(s.logger, s.config.MetricsPath),
		middleware.Recovery(s.logger),
	)

	if s.health != nil {
		s.engine.GET("/healthz", s.health.LivenessHandler())
		s.engine.GET("/readyz", s.health.ReadinessHandler())
	} else {
		s.engine.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
	if s.metricsHandler != nil && s.config.MetricsPath != "" {
		s.engine.GET(s.config.MetricsPath, gin.WrapH(s.metricsHandler))
	}

	s.engine.Any("/:controller", s.handleDispatch)
	s.engine.Any("/:controller/:action", s.handleDispatch)
	s.engine.Any("/:controller/:action/:id", s.handleDispatch)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "No endpoint matched the request",
		})
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves HTTP until Stop is called. It returns nil after a graceful
// shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.engine,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", s.config.Address),
		observability.Duration("readTimeout", s.config.ReadTimeout),
		observability.Duration("writeTimeout", s.config.WriteTimeout),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
