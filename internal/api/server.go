// Package api exposes the duty-roster service over HTTP: schedule and
// roster CRUD, auto-fill, stats, settings and the export endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dutyroster/internal/schedule"
)

// Config holds the HTTP server settings.
type Config struct {
	ListenAddr string  `yaml:"listen_addr"`
	APIKey     string  `yaml:"api_key"`
	RateLimit  float64 `yaml:"rate_limit"`
	RateBurst  int     `yaml:"rate_burst"`
}

// HTTPServer serves the roster API on top of a schedule.Service.
type HTTPServer struct {
	svc     *schedule.Service
	log     *zerolog.Logger
	apiKey  string
	limiter *rate.Limiter
	server  *http.Server
}

// NewHTTPServer builds the server and its routing table. An empty
// cfg.APIKey disables authentication on mutating endpoints.
func NewHTTPServer(svc *schedule.Service, logger *zerolog.Logger, cfg Config) *HTTPServer {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 40
	}

	s := &HTTPServer{
		svc:     svc,
		log:     logger,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/schedule", s.handleSchedule)
	mux.HandleFunc("/api/schedule/save", s.handleSaveSchedule)
	mux.HandleFunc("/api/schedule/assign", s.handleAssign)
	mux.HandleFunc("/api/schedule/unassign", s.handleUnassign)
	mux.HandleFunc("/api/schedule/autofill", s.handleAutoFill)
	mux.HandleFunc("/api/schedule/clear", s.handleClear)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/schedules", s.handleSchedules)
	mux.HandleFunc("/api/schedules/load", s.handleLoadSchedule)
	mux.HandleFunc("/api/schedules/", s.handleSavedSchedule)
	mux.HandleFunc("/api/roster", s.handleRoster)
	mux.HandleFunc("/api/roster/", s.handleRemoveEmployee)
	mux.HandleFunc("/api/duty-counts", s.handleDutyCounts)
	mux.HandleFunc("/api/settings/shifts", s.handleShiftSettings)
	mux.HandleFunc("/api/settings/shifts/", s.handleUpdateShift)
	mux.HandleFunc("/api/export/", s.handleExport)
	mux.HandleFunc("/api/backup", s.handleBackup)
	mux.HandleFunc("/api/restore", s.handleRestore)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	s.server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the configured handler for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("API server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// middleware applies rate limiting to everything and api-key auth to
// mutating methods.
func (s *HTTPServer) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		if s.apiKey != "" && mutating(r.Method) {
			if r.Header.Get("x-api-key") != s.apiKey {
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathTail returns the path segment after prefix, or "" when the path
// does not match or the segment is empty.
func pathTail(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.Trim(path[len(prefix):], "/")
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
