// Package server exposes batch conversion over HTTP.
//
// # Endpoints
//
//	POST /v1/convert   body: {"<key>": "<base64 svg>", ...}
//	                   query: strategy, on_failure, workers, fail_fast
//	GET  /healthz      build information
//
// A convert response carries the output records in input order together
// with the per-record failures and batch statistics:
//
//	{
//	    "run_id": "0b6f...",
//	    "results": {"a": "iVBORw0KGgo...", "b": "error:INVALID_SVG"},
//	    "failures": [{"key": "b", "code": "INVALID_SVG", "message": "..."}],
//	    "stats": {"total": 2, "converted": 1, "failed": 1, ...}
//	}
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/svg2png/pkg/buildinfo"
	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/pipeline"
	"github.com/matzehuels/svg2png/pkg/records"
)

// DefaultMaxBodyBytes caps request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 32 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	// MaxBodyBytes rejects larger request bodies with 413.
	MaxBodyBytes int64
	// Defaults are the batch options used when a request does not override
	// them.
	Defaults pipeline.Options
}

// Server serves the conversion API.
type Server struct {
	runner *pipeline.Runner
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New creates a server around runner.
func New(runner *pipeline.Runner, cfg Config, logger *log.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
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
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// =============================================================================
// Handlers
// =============================================================================

type convertResponse struct {
	RunID    string             `json:"run_id"`
	Results  *records.Set       `json:"results"`
	Failures []pipeline.Failure `json:"failures"`
	Stats    pipeline.Stats     `json:"stats"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	in, err := records.Read(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: errorBody{
				Code:    errors.ErrCodeInvalidInput,
				Message: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			}})
			return
		}
		s.writeError(w, r, err)
		return
	}

	opts.Logger = s.logger.With("request_id", middleware.GetReqID(r.Context()))
	result, err := s.runner.Execute(r.Context(), in, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	failures := result.Failures
	if failures == nil {
		failures = []pipeline.Failure{}
	}
	writeJSON(w, http.StatusOK, convertResponse{
		RunID:    result.RunID,
		Results:  result.Records,
		Failures: failures,
		Stats:    result.Stats,
	})
}

// requestOptions merges query overrides into the server defaults.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.cfg.Defaults
	q := r.URL.Query()

	if v := q.Get("strategy"); v != "" {
		opts.Strategy = v
	}
	if v := q.Get("on_failure"); v != "" {
		opts.OnFailure = v
	}
	if v := q.Get("workers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, errors.New(errors.ErrCodeInvalidConfig, "workers must be a positive integer, got %q", v)
		}
		opts.Workers = n
	}
	if v := q.Get("fail_fast"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidConfig, "fail_fast must be a boolean, got %q", v)
		}
		opts.FailFast = b
	}
	return opts, opts.ValidateAndSetDefaults()
}

// =============================================================================
// Responses
// =============================================================================

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: errors.UserMessage(err)}})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidKey, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidBase64, errors.ErrCodeInvalidEncoding, errors.ErrCodeInvalidSVG, errors.ErrCodeRenderFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
