// Package chi serves the calculation API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain"
	healthuc "github.com/kailas-cloud/magmavol/internal/usecase/health"
	runuc "github.com/kailas-cloud/magmavol/internal/usecase/run"
	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errorCode is the machine-readable code in every error response.
type errorCode string

const (
	codeBadRequest         errorCode = "bad_request"
	codeInvalidBasis       errorCode = "invalid_basis"
	codeUnauthorized       errorCode = "unauthorized"
	codeNotFound           errorCode = "not_found"
	codeSaturationNotFound errorCode = "saturation_not_found"
	codeConvergenceFailed  errorCode = "convergence_failed"
	codeSolverUnavailable  errorCode = "solver_unavailable"
	codeTimeout            errorCode = "timeout"
	codeInternalError      errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
	RunID   string    `json:"run_id,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg, runID string) bool

// Server exposes the volatile calculations, run history and health.
type Server struct {
	volatiles     *volatiles.Service
	sweeps        *sweep.Service
	runs          *runuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	vol *volatiles.Service,
	sweeps *sweep.Service,
	runs *runuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		volatiles: vol,
		sweeps:    sweeps,
		runs:      runs,
		health:    health,
		logger:    logger,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrInvalidBasis, http.StatusBadRequest, codeInvalidBasis),
			sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeBadRequest),
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
			sentinelHandler(domain.ErrSaturationNotFound, http.StatusUnprocessableEntity, codeSaturationNotFound),
			convergenceHandler,
			sentinelHandler(domain.ErrSolverUnavailable, http.StatusBadGateway, codeSolverUnavailable),
			sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, codeTimeout),
		},
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/saturation-pressure", s.SaturationPressure)
		r.Post("/dissolved-volatiles", s.DissolvedVolatiles)
		r.Post("/fluid-composition", s.FluidComposition)
		r.Post("/isobars", s.Isobars)
		r.Post("/degassing-path", s.DegassingPath)

		r.Get("/runs", s.ListRuns)
		r.Get("/runs/{id}", s.GetRun)
		r.Delete("/runs/{id}", s.DeleteRun)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Input errors are built from the caller's own values and are returned whole.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidBasis) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrSaturationNotFound,
		domain.ErrConvergenceFailed,
		domain.ErrSolverUnavailable,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg, runID string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, status, errorResponse{Code: code, Message: msg, RunID: runID})
		return true
	}
}

// convergenceHandler reports where an exhausted search stopped.
func convergenceHandler(w http.ResponseWriter, err error, msg, runID string) bool {
	if !errors.Is(err, domain.ErrConvergenceFailed) {
		return false
	}
	var se *domain.SearchError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":       codeConvergenceFailed,
			"message":    msg,
			"run_id":     runID,
			"protocol":   se.Protocol,
			"stage":      se.Stage,
			"iterations": se.Iterations,
		})
		return true
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: codeConvergenceFailed, Message: msg, RunID: runID})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error, runID string) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg, runID) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Code: codeInternalError, Message: "internal error", RunID: runID,
	})
}
