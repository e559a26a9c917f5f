// Package server exposes the translation pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"pdf-translator/internal/config"
	"pdf-translator/internal/pipeline"
	"pdf-translator/internal/storage"
)

// LanguageDirectory validates target languages and lists the supported set
type LanguageDirectory interface {
	Languages(ctx context.Context) map[string]string
	Supported(ctx context.Context, code string) bool
}

// Server wires the pipeline, storage, and language directory behind HTTP
// handlers
type Server struct {
	cfg       *config.Config
	store     *storage.Store
	pipeline  *pipeline.Pipeline
	directory LanguageDirectory
}

// New creates a Server
func New(cfg *config.Config, store *storage.Store, p *pipeline.Pipeline, directory LanguageDirectory) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		pipeline:  p,
		directory: directory,
	}
}

// Router builds the HTTP routing table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/health", s.handleHealth)
	r.Get("/languages", s.handleLanguages)
	r.Post("/upload", s.handleUpload)

	return r
}

// HTTPServer wraps the router in an http.Server with sane timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Reads and writes span the whole pipeline plus the download
		ReadTimeout:  s.cfg.RequestTimeout,
		WriteTimeout: s.cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
