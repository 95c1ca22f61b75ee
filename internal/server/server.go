// Package server exposes the pulsecheck diagnostics over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database/connect"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/envcheck"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/filestore"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/logger"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/schema"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/smoke"
)

// Options wires the server to its dependencies. DB is a long-lived pool
// shared by the health, schema and crud endpoints.
type Options struct {
	Addr     string
	DB       database.DB
	DBConfig *database.Config // used by /checks/driver to open a fresh connection
	Open     connect.Opener   // connect.Open when nil
	Catalog  schema.Catalog
	Env      envcheck.Options
	Heatmap  smoke.HeatmapOptions
	CRUD     smoke.CRUDOptions
	Archiver *filestore.Archiver // nil disables /reports
	Logger   *logger.Logger

	// NewIntrospector defaults to schema.NewIntrospector.
	NewIntrospector func(database.DB) (schema.Introspector, error)
}

type Server struct {
	opts Options
	log  *logger.Logger
}

func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Open == nil {
		opts.Open = connect.Open
	}
	if opts.NewIntrospector == nil {
		opts.NewIntrospector = schema.NewIntrospector
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Server{opts: opts, log: log.With().Str("component", "http").Logger()}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.InfoWith("http server starting", map[string]interface{}{"addr": s.opts.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("http server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(RequestLogger(s.log))

	r.Method(http.MethodGet, "/healthz", HealthHandler{DB: s.opts.DB})

	r.Route("/checks", func(c chi.Router) {
		c.Get("/env", s.env)
		c.Get("/driver", s.driver)
		c.Get("/schema", s.schemaJSON)
		c.Get("/schema.html", s.schemaHTML)
		c.Get("/heatmap", s.heatmap)
		c.Post("/crud", s.crud)
	})

	r.Route("/reports", func(rp chi.Router) {
		rp.Get("/", s.listReports)
		rp.Get("/*", s.getReport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	return r
}
