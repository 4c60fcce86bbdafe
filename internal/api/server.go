// Package api is the HTTP front end: the interactive document page
// plus the PNG raster, cross-section, and document metadata endpoints
// behind it.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shadeserve/internal/document"
	"shadeserve/internal/tiles"
)

// Server serves one registry of documents.
type Server struct {
	router   chi.Router
	registry *document.Registry
	tiles    *tiles.Client
	log      *slog.Logger
}

// NewServer creates and configures the HTTP server. tileClient may be
// nil; rasters then composite onto the plain background only.
func NewServer(registry *document.Registry, tileClient *tiles.Client, log *slog.Logger) *Server {
	s := &Server{
		registry: registry,
		tiles:    tileClient,
		log:      log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handlePage)
	r.Get("/shade.png", s.handleShade)
	r.Get("/section.png", s.handleSection)
	r.Get("/api/document", s.handleDocument)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// requestLogger logs incoming requests with their status and duration.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
