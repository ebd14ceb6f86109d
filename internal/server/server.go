// Package server implements the layermap HTTP API.
//
// Documents are uploaded once, parsed and kept in a [store.Store]; every
// other endpoint refers to them by ID. Remaps run through the same
// [pipeline.Runner] as the CLI, so results are cached identically.
//
//	POST   /documents                      upload (body: document bytes)
//	GET    /documents                      list
//	GET    /documents/{id}                 metadata and layer tree
//	DELETE /documents/{id}
//	GET    /documents/{id}/validation      boundary report
//	GET    /documents/{id}/resolve?name=   resolve one container
//	POST   /remap                          remap and reconstruct
//	GET    /healthz
//	GET    /metrics                        when a metrics handler is set
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/pipeline"
	"github.com/matzehuels/layermap/pkg/store"
	"github.com/matzehuels/layermap/pkg/strategy"
)

// Limits.
const (
	MaxDocumentSize = 256 << 20 // PSD uploads are large
	MaxRequestSize  = 1 << 20
	RequestTimeout  = 2 * time.Minute
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger

	// Provider suggests strategies for remaps that carry none.
	Provider strategy.Provider

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// New creates a server. A nil store is replaced by an in-memory one.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = runner.Logger
	}
	return &Server{Runner: runner, Store: st, Logger: logger}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleDelete)
				r.Get("/validation", s.handleValidate)
				r.Get("/resolve", s.handleResolve)
			})
		})
		r.Post("/remap", s.handleRemap)
	})
	return r
}

// logRequests logs one line per request at info level, errors at warn.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		kv := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			s.Logger.Warn("request failed", kv...)
			return
		}
		s.Logger.Info("request", kv...)
	})
}

// =============================================================================
// Response helpers
// =============================================================================

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.Logger.Error("handler error", "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestSize+1))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(body) > MaxRequestSize {
		return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", MaxRequestSize)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
