// Package server exposes the accumulator engine over HTTP: odds fetching,
// bulk accumulator builds, custom combination evaluation, and historical
// stats management.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/builder"
	"github.com/yourusername/acca-engine/internal/config"
	"github.com/yourusername/acca-engine/internal/datasource"
	"github.com/yourusername/acca-engine/internal/metrics"
	"github.com/yourusername/acca-engine/internal/probability"
	"github.com/yourusername/acca-engine/internal/storage"
)

// Server is the HTTP front end for the accumulator engine
type Server struct {
	cfg        *config.Config
	logger     *logrus.Logger
	store      *storage.Store
	oddsClient *datasource.Client
	model      *probability.Model
	builder    *builder.Builder
	validator  *config.CustomValidator
	httpServer *http.Server
}

// New creates a new server wired to its collaborators
func New(
	cfg *config.Config,
	store *storage.Store,
	oddsClient *datasource.Client,
	model *probability.Model,
	bld *builder.Builder,
	logger *logrus.Logger,
) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		oddsClient: oddsClient,
		model:      model,
		builder:    bld,
		validator:  config.NewValidator(),
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/odds", s.handleFetchOdds).Methods(http.MethodGet)
	api.HandleFunc("/odds/stored", s.handleStoredOdds).Methods(http.MethodGet)
	api.HandleFunc("/odds/sports", s.handleSports).Methods(http.MethodGet)
	api.HandleFunc("/odds/{id}/probability", s.handleProbabilityBreakdown).Methods(http.MethodGet)
	api.HandleFunc("/accumulators", s.handleBuildAccumulators).Methods(http.MethodGet)
	api.HandleFunc("/accumulators/calculate", s.handleCalculateCustom).Methods(http.MethodPost)
	api.HandleFunc("/accumulators/stored", s.handleStoredAccumulators).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleGetStats).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleUpsertStat).Methods(http.MethodPost)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.cfg.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	r.Use(s.loggingMiddleware)
	return r
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.GetServerAddress(),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("address", s.httpServer.Addr).Info("HTTP server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("HTTP server shutting down")

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware logs each request with method, path, and duration
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request handled")
	})
}

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status":    "ok",
		"service":   s.cfg.App.Name,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
