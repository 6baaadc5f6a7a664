package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain"
	domrun "github.com/kailas-cloud/magmavol/internal/domain/run"
	logpkg "github.com/kailas-cloud/magmavol/internal/logger"
	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
)

// SaturationPressure handles POST /v1/saturation-pressure.
func (s *Server) SaturationPressure(w http.ResponseWriter, r *http.Request) {
	var req saturationPressureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comp, err := req.Sample.Build()
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	t, err := required("temperature_c", req.TemperatureC)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}

	res, err := s.volatiles.SaturationPressure(r.Context(), comp, t)
	// a failed search still carries the warning and iteration count
	s.finish(w, r, domrun.KindSaturationPressure, req, saturationToResponse(res), err)
}

// DissolvedVolatiles handles POST /v1/dissolved-volatiles.
func (s *Server) DissolvedVolatiles(w http.ResponseWriter, r *http.Request) {
	var req dissolvedVolatilesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comp, err := req.Sample.Build()
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	t, err := required("temperature_c", req.TemperatureC)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	p, err := required("pressure_bars", req.PressureBars)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	x := 1.0
	if req.XH2OFluid != nil {
		x = *req.XH2OFluid
	}

	res, err := s.volatiles.DissolvedVolatiles(r.Context(), comp, t, p, x, req.H2OGuess)
	s.finish(w, r, domrun.KindDissolvedVolatiles, req, resultOrNil(dissolvedToResponse(res), err), err)
}

// FluidComposition handles POST /v1/fluid-composition.
func (s *Server) FluidComposition(w http.ResponseWriter, r *http.Request) {
	var req fluidCompositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comp, err := req.Sample.Build()
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	t, err := required("temperature_c", req.TemperatureC)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	p, err := required("pressure_bars", req.PressureBars)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}

	res, err := s.volatiles.EquilibriumFluidComp(r.Context(), comp, t, p)
	s.finish(w, r, domrun.KindFluidComposition, req, resultOrNil(fluidToResponse(res), err), err)
}

// Isobars handles POST /v1/isobars.
func (s *Server) Isobars(w http.ResponseWriter, r *http.Request) {
	var req isobarsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comp, err := req.Sample.Build()
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	t, err := required("temperature_c", req.TemperatureC)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}

	res, err := s.sweeps.IsobarsAndIsopleths(r.Context(), comp, sweep.IsobarRequest{
		TemperatureC:    t,
		PressuresBars:   req.PressuresBars,
		Isopleths:       req.Isopleths,
		SmoothIsobars:   req.SmoothIsobars,
		SmoothIsopleths: req.SmoothIsopleths,
	})
	s.finish(w, r, domrun.KindIsobars, req, resultOrNil(isobarsToResponse(res), err), err)
}

// DegassingPath handles POST /v1/degassing-path.
func (s *Server) DegassingPath(w http.ResponseWriter, r *http.Request) {
	var req degassingPathRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comp, err := req.Sample.Build()
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	t, err := required("temperature_c", req.TemperatureC)
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	steps := req.Steps
	if steps == 0 {
		steps = sweep.DefaultDegassingSteps
	}

	res, err := s.sweeps.DegassingPath(r.Context(), comp, sweep.DegassingRequest{
		TemperatureC:      t,
		StartPressureBars: req.StartPressureBars,
		FractionateVapor:  req.FractionateVapor,
		InitVapor:         req.InitVapor,
		Steps:             steps,
	})
	s.finish(w, r, domrun.KindDegassingPath, req, resultOrNil(degassingToResponse(res), err), err)
}

// ListRuns handles GET /v1/runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	resp := runListResponse{Runs: make([]runResponse, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, runToResponse(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRun handles GET /v1/runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, runToResponse(run))
}

// DeleteRun handles DELETE /v1/runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.runs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// finish records the calculation as a run and writes the response.
// Rejected input is answered without a run.
func (s *Server) finish(
	w http.ResponseWriter, r *http.Request, kind domrun.Kind, req, result any, calcErr error,
) {
	if errors.Is(calcErr, domain.ErrInvalidInput) || errors.Is(calcErr, domain.ErrInvalidBasis) {
		s.handleDomainError(w, calcErr, "")
		return
	}

	var runID string
	run, err := s.runs.Record(context.WithoutCancel(r.Context()), kind, req, result, calcErr)
	if err != nil {
		logpkg.FromContext(r.Context()).Warn("Failed to record run",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	} else {
		runID = run.ID()
	}

	if calcErr != nil {
		s.handleDomainError(w, calcErr, runID)
		return
	}
	writeJSON(w, http.StatusOK, calculationResponse{RunID: runID, Result: result})
}

// resultOrNil drops the zero-value result of a failed calculation.
func resultOrNil[T any](v T, err error) any {
	if err != nil {
		return nil
	}
	return v
}

func required(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	return *v, nil
}
