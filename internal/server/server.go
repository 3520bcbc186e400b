package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markwatch/journal-cli/internal/config"
	"github.com/markwatch/journal-cli/internal/export"
	"github.com/markwatch/journal-cli/internal/pipeline"
	"github.com/markwatch/journal-cli/internal/store"
)

// Server exposes the journal data and pipeline controls over HTTP.
type Server struct {
	cfg      config.ServerConfig
	store    store.Store
	pipeline *pipeline.Pipeline
	exporter *export.Service
}

// New creates a Server.
func New(cfg config.ServerConfig, st store.Store, p *pipeline.Pipeline) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		pipeline: p,
		exporter: export.NewService(st),
	}
}

// Router builds the HTTP route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/journals", func(r chi.Router) {
			r.Get("/", s.handleListJournals)
			r.Get("/latest", s.handleLatestJournals)
			r.Get("/{id}", s.handleGetJournal)
			r.Get("/{id}/pdfs", s.handleJournalPDFs)
			r.Get("/{id}/trademarks", s.handleJournalTrademarks)
		})

		r.Route("/trademarks", func(r chi.Router) {
			r.Get("/", s.handleListTrademarks)
			r.Get("/{id}", s.handleGetTrademark)
		})

		r.Get("/stats", s.handleStats)

		r.Route("/scraper", func(r chi.Router) {
			r.Post("/run", s.handleScraperRun)
			r.Get("/status", s.handleScraperStatus)
			r.Get("/logs", s.handleScraperLogs)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/journals.xlsx", s.handleExportJournals)
			r.Get("/trademarks.xlsx", s.handleExportTrademarks)
		})
	})

	return r
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zap.L().Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
