// Package server exposes the published composition over HTTP.
//
// Every registry is queryable by exact key. Handlers read the composition that
// is current when the request arrives; a reload that lands mid-request does not
// affect it.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/buildmatrix/internal/app"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/logfields"
)

// Source yields the composition to serve, or nil when none is published yet.
type Source interface {
	Current() *app.Composition
}

// Server represents the registry API server.
type Server struct {
	Addr         string
	router       *chi.Mux
	server       *http.Server
	source       Source
	errorAdapter *errors.HTTPErrorAdapter

	metricsPath    string
	metricsHandler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsHandler = h
	}
}

// New creates a server reading from source.
func New(addr string, source Source, opts ...Option) *Server {
	s := &Server{
		Addr:         addr,
		router:       chi.NewRouter(),
		source:       source,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
	for _, o := range opts {
		o(s)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/", s.handleIndex)
	s.router.Get("/composition", s.handleComposition)

	s.router.Get("/packages", s.handlePackages)
	s.router.Get("/packages/{key}", s.handlePackage)
	s.router.Get("/apps", s.handleApps)
	s.router.Get("/apps/{key}", s.handleApp)
	s.router.Get("/checks", s.handleChecks)
	s.router.Get("/checks/{key}", s.handleCheck)
	s.router.Get("/default", s.handleDefault)
	s.router.Get("/overlay", s.handleOverlay)

	if s.metricsHandler != nil {
		s.router.Handle(s.metricsPath, s.metricsHandler)
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start binds the listen address and serves until Shutdown. Bind failures are
// returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.Addr)
	if err != nil {
		return errors.NetworkError("failed to bind http listener").
			WithCause(err).
			WithContext("addr", s.Addr).
			Build()
	}
	slog.Info("HTTP server listening", slog.String("addr", ln.Addr().String()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", logfields.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// Error writes a classified error through the HTTP error adapter.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	s.errorAdapter.WriteErrorResponse(w, r, err)
}
