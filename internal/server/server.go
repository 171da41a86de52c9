// Package server provides the loopback HTTP surface over the sheetbridge
// facade.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ukaji3/sheetbridge-go/internal/config"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/export"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// snapshotSizeFactor bounds snapshot JSON bodies relative to the file size
// ceiling. Snapshots are larger than the files they describe.
const snapshotSizeFactor = 4

// Server is the HTTP server for opening and saving workbooks.
type Server struct {
	cfg    *config.Config
	fonts  *export.FontCache
	logger *slog.Logger
	router *chi.Mux
	server *http.Server
}

// NewServer creates a server. fonts may be nil, in which case pdf output
// uses the built-in Latin font.
func NewServer(cfg *config.Config, fonts *export.FontCache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		fonts:  fonts,
		logger: logger,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/open", s.handleOpen)
		r.Post("/save/{format}", s.handleSave)
		r.Post("/scan", s.handleScan)
	})
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Listen validates the configuration and opens the loopback listener.
func (s *Server) Listen() (net.Listener, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return net.Listen("tcp", s.cfg.Server.Addr)
}

// Serve serves requests on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server listening", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) maxFileSize() int64 {
	return s.cfg.Limits.MaxFileSize
}

func (s *Server) csvEncoding() models.Encoding {
	return models.Encoding(s.cfg.CSV.Encoding)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
