// Package server exposes the conversion pipeline over HTTP.
//
// The API is a thin envelope around pipeline.Runner so CLI and service
// behave identically: POST /v1/convert runs one conversion, GET /healthz
// reports liveness. Every request gets a UUID usable for correlating log
// lines.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/lookdevkit/shaderbridge/pkg/buildinfo"
	sberrors "github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/pipeline"
)

// Server handles HTTP conversion requests.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server around the given runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/convert", s.handleConvert)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type ctxKey int

const requestIDKey ctxKey = 0

// requestID assigns each request a UUID, exposed in the response header
// and the request context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", requestIDFrom(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// convertResponse is the JSON envelope returned by /v1/convert.
type convertResponse struct {
	Document  string             `json:"document"`
	RuleSet   string             `json:"ruleset"`
	Roots     []string           `json:"roots"`
	GraphHash string             `json:"graph_hash"`
	CacheHit  bool               `json:"cache_hit"`
	Warnings  []sberrors.Warning `json:"warnings,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
}

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "decode request: "+err.Error(), "")
		return
	}
	// The service converts inline snapshots only. Reading server-side
	// paths from request bodies is not supported.
	if opts.SnapshotPath != "" {
		s.writeError(ctx, w, http.StatusBadRequest,
			"snapshot_path is not accepted over HTTP, send the snapshot inline", string(sberrors.ErrCodeInvalidInput))
		return
	}
	opts.Logger = s.logger

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		code := sberrors.GetCode(err)
		s.writeError(ctx, w, statusFor(code), sberrors.UserMessage(err), string(code))
		return
	}

	if r.URL.Query().Get("raw") == "true" {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.XML)
		return
	}

	writeJSON(w, http.StatusOK, convertResponse{
		Document:  string(result.XML),
		RuleSet:   result.RuleSet,
		Roots:     result.Roots,
		GraphHash: result.GraphHash,
		CacheHit:  result.CacheInfo.Hit(),
		Warnings:  result.Warnings,
		RequestID: requestIDFrom(ctx),
	})
}

// statusFor maps conversion error codes to HTTP status codes.
func statusFor(code sberrors.Code) int {
	switch code {
	case sberrors.ErrCodeInvalidInput, sberrors.ErrCodeInvalidSnapshot,
		sberrors.ErrCodeInvalidRuleSet, sberrors.ErrCodeNoRoot:
		return http.StatusUnprocessableEntity
	case sberrors.ErrCodeNotFound, sberrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case sberrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: requestIDFrom(ctx),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
