// Package server exposes the check engine and a shared result cache over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/warden/internal/cache"
	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/metrics"
	"github.com/chris-regnier/warden/internal/output"
	"github.com/chris-regnier/warden/internal/rules"
	"github.com/chris-regnier/warden/internal/sarif"
)

const (
	serverReadTimeout  = 30 * time.Second
	serverWriteTimeout = 60 * time.Second
	serverIdleTimeout  = 120 * time.Second
	shutdownTimeout    = 10 * time.Second

	defaultMaxBody = 8 << 20
)

// FileInput is one file to check.
type FileInput struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

// CheckRequest is the body of POST /v1/check. Format selects the response
// encoding: "json" (default), "sarif" or "plain".
type CheckRequest struct {
	Files  []FileInput `json:"files"`
	Format string      `json:"format,omitempty"`
}

// CheckResponse is the JSON response of POST /v1/check.
type CheckResponse struct {
	Results []engine.Result `json:"results"`
	Summary output.Summary  `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the HTTP API.
type Server struct {
	engine    *engine.Engine
	rules     []rules.Rule
	cache     cache.Store
	collector *metrics.Collector
	token     string
	version   string
	maxBody   int64
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Server.
type Option func(*Server)

// WithCache mounts the /v1/cache endpoints backed by c.
func WithCache(c cache.Store) Option {
	return func(s *Server) { s.cache = c }
}

// WithCollector serves c's statistics from /v1/stats.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Server) { s.collector = c }
}

// WithRules supplies the rule pack entries used to describe SARIF rules.
func WithRules(rs []rules.Rule) Option {
	return func(s *Server) { s.rules = rs }
}

// WithToken requires "Authorization: Bearer <token>" on /v1 routes.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxBody limits request bodies to n bytes.
func WithMaxBody(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:  eng,
		version: "dev",
		maxBody: defaultMaxBody,
		logger:  slog.Default(),
		tracer:  otel.Tracer("github.com/chris-regnier/warden/internal/server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(tracing(s.tracer))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(bearer(s.token))
		r.Use(middleware.RequestSize(s.maxBody))
		r.Post("/check", s.handleCheck)
		r.Get("/modules", s.handleModules)
		r.Get("/stats", s.handleStats)
		if s.cache != nil {
			r.Get("/cache/stats", s.handleCacheStats)
			r.Get("/cache/{hash}", s.handleCacheGet)
			r.Put("/cache/{hash}", s.handleCachePut)
			r.Delete("/cache/{hash}", s.handleCacheDelete)
		}
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Modules())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusNotFound, "metrics are not collected")
		return
	}
	writeJSON(w, http.StatusOK, s.collector.GetStats())
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "no files to check")
		return
	}
	files := make([]engine.File, 0, len(req.Files))
	for i, f := range req.Files {
		if f.Path == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("files[%d]: path is required", i))
			return
		}
		files = append(files, engine.File{Path: f.Path, Text: f.Source})
	}

	results, err := s.engine.ProcessAll(r.Context(), files)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "check failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch req.Format {
	case "", "json":
		writeJSON(w, http.StatusOK, CheckResponse{Results: results, Summary: output.Summarize(results)})
	case "sarif":
		log := sarif.Assemble(results, sarif.Descriptors(s.engine.Modules(), s.rules), "request", s.version)
		writeJSON(w, http.StatusOK, log)
	case "plain":
		data, err := (&output.PlainFormatter{}).Format(&output.AnalysisOutput{Results: results})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", req.Format))
	}
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	st, ok := s.cache.(interface{ Stats() cache.CacheStats })
	if !ok {
		writeError(w, http.StatusNotFound, "cache does not keep statistics")
		return
	}
	writeJSON(w, http.StatusOK, st.Stats())
}

func (s *Server) handleCacheGet(w http.ResponseWriter, r *http.Request) {
	entry, err := s.cache.Lookup(r.Context(), chi.URLParam(r, "hash"))
	if errors.Is(err, cache.ErrCacheMiss) {
		writeError(w, http.StatusNotFound, "not cached")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleCachePut(w http.ResponseWriter, r *http.Request) {
	var entry cache.CacheEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry: "+err.Error())
		return
	}
	if hash := chi.URLParam(r, "hash"); entry.Key.Hash() != hash {
		writeError(w, http.StatusBadRequest, "entry key does not match "+hash)
		return
	}
	if err := s.cache.Put(r.Context(), &entry); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Remove(r.Context(), chi.URLParam(r, "hash")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
