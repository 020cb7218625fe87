// Package api serves the doomsday service over HTTP for the web front-end.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ramonehamilton/doomsday-companion/internal/api/handlers"
	"github.com/ramonehamilton/doomsday-companion/internal/api/websocket"
	"github.com/ramonehamilton/doomsday-companion/internal/metrics"
	"github.com/ramonehamilton/doomsday-companion/internal/rules"
)

// Service is everything the API needs from doomsday.Service.
type Service interface {
	handlers.PileService
	handlers.DeckParser
	websocket.Runner
	Rules() *rules.Tables
}

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int
	origins    []string
	timeout    time.Duration
	topN       int

	// Subscribers are told when suggestion runs complete.
	wsHub  *websocket.Hub
	stream *websocket.StreamHandler

	service Service
	metrics *metrics.EngineMetrics
	logger  *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Port        int
	CORSOrigins []string
	// RequestTimeout bounds every request, including suggestion runs.
	RequestTimeout time.Duration
	// TopN is the number of suggestions returned when a request does not say.
	TopN int
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		CORSOrigins:    []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"},
		RequestTimeout: 60 * time.Second,
		TopN:           handlers.DefaultTopN,
	}
}

// NewServer creates a new API server. m and logger may be nil.
func NewServer(cfg *Config, service Service, m *metrics.EngineMetrics, logger *slog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaults.CORSOrigins
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewEngineMetrics()
	}

	s := &Server{
		router:  chi.NewRouter(),
		port:    cfg.Port,
		origins: cfg.CORSOrigins,
		timeout: cfg.RequestTimeout,
		topN:    cfg.TopN,
		wsHub:   websocket.NewHub(logger),
		service: service,
		metrics: m,
		logger:  logger,
	}
	s.stream = websocket.NewStreamHandler(service, m, logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	// Request ID for tracing
	s.router.Use(middleware.RequestID)

	// Real IP detection
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(middleware.Logger)

	// Panic recovery
	s.router.Use(middleware.Recoverer)

	// Request timeout
	s.router.Use(middleware.Timeout(s.timeout))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(s.metricsMiddleware)

	// Content-Type enforcement for POST/PUT/PATCH only (not GET/DELETE/OPTIONS)
	s.router.Use(s.jsonContentTypeMiddleware)
}

// metricsMiddleware counts API requests and client or server failures.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.metrics.RecordAPIRequest(ww.Status() >= http.StatusBadRequest)
	})
}

// jsonContentTypeMiddleware enforces application/json content-type for requests with bodies.
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" || (contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;")) {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the API server in a goroutine.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.timeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "port", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the API server and the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Close()
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}

// WebSocketHub returns the hub that broadcasts suggestion events.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
