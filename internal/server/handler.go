// Package server implements the tablevc HTTP handlers and middleware.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tablevc/tablevc/internal/core"
	"github.com/tablevc/tablevc/internal/db"
)

// ServerConfig holds configurable limits for the server.
type ServerConfig struct {
	MaxRequestBody int64 // bytes, for JSON endpoints
}

// DefaultServerConfig returns reasonable defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		MaxRequestBody: 16 * 1024 * 1024, // 16MB
	}
}

// Handler creates the HTTP handler with all routes and middleware.
// All table endpoints share one branch scope over the given handle, so
// concurrent requests serialize their checkout/operate/restore cycles.
func Handler(h db.Handle, cfg *ServerConfig, logger *slog.Logger) http.Handler {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	scope := core.NewBranchScope()
	scope.OnWait = func(d time.Duration) { scopeWaitMetric.Observe(d.Seconds()) }

	mutations := core.NewMutationPipeline(h, scope)
	reads := core.NewReadPipeline(h, scope)

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := h.ListBranches(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("not ready: repository unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Table endpoints
	mux.HandleFunc("POST /api/create_table", makeCreateTableHandler(mutations, cfg))
	mux.HandleFunc("POST /api/update_table", makeUpdateTableHandler(mutations, cfg))
	mux.HandleFunc("GET /api/read_table", makeReadTableHandler(reads))

	return applyMiddleware(mux,
		recoveryMiddleware(logger),
		loggingMiddleware(logger),
		metricsMiddleware,
		requestIDMiddleware,
	)
}

func makeCreateTableHandler(mutations *core.MutationPipeline, cfg *ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := readJSON(r, cfg.MaxRequestBody, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": err.Error()})
			return
		}

		req, err := core.ParseCreateRequest(payload)
		if err != nil {
			writeError(w, err)
			return
		}

		desc, err := mutations.Execute(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		commitCountMetric.Inc()
		writeJSON(w, http.StatusOK, desc)
	}
}

func makeUpdateTableHandler(mutations *core.MutationPipeline, cfg *ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := readJSON(r, cfg.MaxRequestBody, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": err.Error()})
			return
		}

		req, err := core.ParseUpdateRequest(payload)
		if err != nil {
			writeError(w, err)
			return
		}

		desc, err := mutations.Execute(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		commitCountMetric.Inc()
		writeJSON(w, http.StatusOK, desc)
	}
}

func makeReadTableHandler(reads *core.ReadPipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Query parameters feed the same validator as JSON bodies
		payload := map[string]any{}
		q := r.URL.Query()
		if q.Has("branch") {
			payload["branch"] = q.Get("branch")
		}
		if q.Has("table") {
			payload["table"] = q.Get("table")
		}

		req, err := core.ParseReadRequest(payload)
		if err != nil {
			writeError(w, err)
			return
		}

		rows, err := reads.Execute(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, rows)
	}
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// statusForKind maps pipeline error kinds to HTTP statuses.
func statusForKind(kind core.Kind) int {
	switch kind {
	case core.KindMissingParameter, core.KindTypeMismatch:
		return http.StatusBadRequest
	case core.KindTableNotFound, core.KindBranchNotFound:
		return http.StatusNotFound
	case core.KindTableAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a structured error response. Every failure carries
// a machine-readable kind; there is no generic unstructured path.
func writeError(w http.ResponseWriter, err error) {
	kind := core.KindOf(err)
	writeJSON(w, statusForKind(kind), map[string]string{
		"error":   string(kind),
		"message": err.Error(),
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, maxSize int64, v interface{}) error {
	limited := io.LimitReader(r.Body, maxSize)
	if err := json.NewDecoder(limited).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
