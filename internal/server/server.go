package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config wires the intake pipeline's collaborators into the HTTP server.
// Store and Scanner are required; Notifier and Mirror may be nil when their
// configuration is incomplete, which disables the corresponding step.
type Config struct {
	Addr           string // e.g. ":8080"
	Store          *SessionStore
	Scanner        Scanner
	Notifier       Notifier
	Mirror         *Mirror
	MaxUploadBytes int64
	StaticDir      string // directory for the minimal client UI, "" disables
	RateLimit      int    // requests per RateWindow per IP, 0 disables
	RateWindow     time.Duration
}

type Server struct {
	httpServer *http.Server

	store          *SessionStore
	scanner        Scanner
	notifier       Notifier
	mirror         *Mirror
	maxUploadBytes int64
}

func New(cfg Config) *Server {
	s := &Server{
		store:          cfg.Store,
		scanner:        cfg.Scanner,
		notifier:       cfg.Notifier,
		mirror:         cfg.Mirror,
		maxUploadBytes: cfg.MaxUploadBytes,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeadersMiddleware)
	if cfg.RateLimit > 0 {
		r.Use(newRateLimiter(cfg.RateLimit, cfg.RateWindow).middleware)
	}

	r.Post("/start-session", s.startSessionHandler)
	r.Post("/upload", s.uploadHandler)
	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if cfg.StaticDir != "" {
		// Minimal client UI; not part of the intake pipeline.
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.store.Len(),
	})
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
