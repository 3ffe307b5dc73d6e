package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aescanero/example-app/pkg/adapters/events"
	"github.com/aescanero/example-app/pkg/adapters/metrics/prometheus"
)

// Endpoint names used as the "endpoint" metric label
const (
	EndpointHello         = "hello"
	EndpointHealth        = "health"
	EndpointMetrics       = "metrics"
	EndpointAbout         = "about"
	EndpointRequestStream = "request_stream"
	EndpointUnknown       = "unknown"
)

// ServiceInfo identifies the running service in response payloads
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}

// EventPublisher accepts request events without blocking
type EventPublisher interface {
	Enqueue(event events.RequestEvent) error
}

// StreamHandler serves the live request event feed
type StreamHandler interface {
	HandleRequestStream(c *gin.Context)
}

// Server represents the HTTP API server
type Server struct {
	router    *gin.Engine
	server    *http.Server
	info      ServiceInfo
	metrics   *prometheus.Collector
	publisher EventPublisher
	endpoints map[string]string
	logger    *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port              int
	ReadHeaderTimeout time.Duration
	Debug             bool
	CORS              bool
	Service           ServiceInfo
	Metrics           *prometheus.Collector
	// Publisher is optional; without it no request events are emitted
	Publisher EventPublisher
	// TracerProvider defaults to the global OpenTelemetry provider
	TracerProvider trace.TracerProvider
	Logger         *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	router := gin.New()
	// unmatched paths, trailing-slash variants included, go through the middleware chain
	router.RedirectTrailingSlash = false
	router.HandleMethodNotAllowed = true

	s := &Server{
		router:    router,
		info:      cfg.Service,
		metrics:   cfg.Metrics,
		publisher: cfg.Publisher,
		endpoints: make(map[string]string),
		logger:    cfg.Logger,
	}

	router.Use(requestID())
	router.Use(tracing(tp.Tracer(cfg.Service.Name)))
	router.Use(s.instrument())
	if cfg.CORS {
		router.Use(corsMiddleware())
	}
	router.Use(requestLogger(cfg.Logger))
	router.Use(gin.CustomRecoveryWithWriter(io.Discard, s.handlePanic))

	s.setupRoutes()

	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// setupRoutes configures the service routes
func (s *Server) setupRoutes() {
	s.handle(http.MethodGet, "/", EndpointHello, s.handleHello)
	s.handle(http.MethodHead, "/", EndpointHello, s.handleHello)
	s.handle(http.MethodGet, "/health", EndpointHealth, s.handleHealth)
	s.handle(http.MethodHead, "/health", EndpointHealth, s.handleHealth)
	s.handle(http.MethodGet, "/about", EndpointAbout, s.handleAbout)
	s.handle(http.MethodGet, "/metrics", EndpointMetrics, gin.WrapH(s.metrics.Handler()))

	s.router.NoRoute(s.handleNotFound)
	s.router.NoMethod(s.handleMethodNotAllowed)
}

// handle registers a route and remembers its endpoint label
func (s *Server) handle(method, path, endpoint string, handler gin.HandlerFunc) {
	s.endpoints[path] = endpoint
	s.router.Handle(method, path, handler)
}

// SetupWebSocket adds the request event feed to the server
func (s *Server) SetupWebSocket(handler StreamHandler) {
	s.handle(http.MethodGet, "/ws/requests", EndpointRequestStream, handler.HandleRequestStream)
}

// endpointFor maps a matched route to its endpoint label
func (s *Server) endpointFor(fullPath string) string {
	if name, ok := s.endpoints[fullPath]; ok {
		return name
	}
	return EndpointUnknown
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
