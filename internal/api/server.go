// Package api serves published opportunities and scan control over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/health"
	"github.com/yourusername/arbstream/internal/metrics"
	"github.com/yourusername/arbstream/internal/store"
)

// ScanTrigger starts a scan without waiting for it. It reports false when a
// scan is already running.
type ScanTrigger interface {
	Trigger() bool
}

// TriggerFunc adapts a function to ScanTrigger
type TriggerFunc func() bool

// Trigger calls f
func (f TriggerFunc) Trigger() bool {
	return f()
}

// Config configures the HTTP server
type Config struct {
	ServiceName    string
	Version        string
	Addr           string
	CORSOrigins    []string
	MetricsEnabled bool
	MetricsPath    string
	Bookmakers     map[string]string
}

// Server is the dashboard-facing HTTP API
type Server struct {
	cfg     Config
	store   *store.Store
	scanner ScanTrigger
	health  *health.Checker
	hub     *Hub
	links   BookmakerLinks
	logger  *logrus.Entry
}

// NewServer creates the API server
func NewServer(cfg Config, st *store.Store, scanner ScanTrigger, checker *health.Checker, logger *logrus.Logger) *Server {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	links := BookmakerLinks(cfg.Bookmakers)

	return &Server{
		cfg:     cfg,
		store:   st,
		scanner: scanner,
		health:  checker,
		hub:     NewHub(st, links, originChecker(cfg.CORSOrigins), logger),
		links:   links,
		logger:  logger.WithField("component", "api"),
	}
}

// Hub returns the websocket hub so it can be registered as a scan sink
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.health.HandleHealth)
	r.Get("/ready", s.health.HandleReady)
	if s.cfg.MetricsEnabled {
		r.Handle(s.cfg.MetricsPath, metrics.Handler())
	}
	r.Get("/ws", s.hub.HandleWS)

	routes := func(r chi.Router) {
		r.Get("/opportunities", s.handleOpportunities)
		r.Get("/status", s.handleStatus)
		r.Post("/scan", s.handleScan)
	}
	r.Group(routes)
	r.Route("/api", routes)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.Addr).Info("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, MessageResponse{Message: s.cfg.ServiceName + " API", Version: s.cfg.Version})
}

// handleOpportunities returns the published list. It never fails: with every
// source down the list is simply empty.
func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, newOpportunityList(s.store.Opportunities(), s.links))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, newStatusResponse(s.store.Status()))
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	msg := "Scan started"
	if !s.scanner.Trigger() {
		msg = "Scan already in progress"
	}
	s.respond(w, http.StatusAccepted, MessageResponse{Message: msg})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "no route for " + r.URL.Path,
		Code:    http.StatusNotFound,
	})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "method_not_allowed",
		Message: r.Method + " is not allowed on " + r.URL.Path,
		Code:    http.StatusMethodNotAllowed,
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, body interface{}) {
	if err := respondJSON(w, status, body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": chimiddleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

// originChecker mirrors the CORS allow-list for websocket upgrades
func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
