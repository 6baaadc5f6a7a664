package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/db/memory"
	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium/equilibriumtest"
	runrepo "github.com/kailas-cloud/magmavol/internal/repository/run"
	healthuc "github.com/kailas-cloud/magmavol/internal/usecase/health"
	runuc "github.com/kailas-cloud/magmavol/internal/usecase/run"
	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// --- Fixtures ---

const basaltSample = `{"composition":{"SiO2":50,"Al2O3":15,"FeO":8,"MgO":9,"CaO":11,` +
	`"Na2O":3,"K2O":1,"H2O":3,"CO2":0.5}}`

type testEnv struct {
	handler http.Handler
	solver  *equilibriumtest.Solver
	server  *Server
}

func newTestEnv(t *testing.T, apiKeys ...string) *testEnv {
	t.Helper()
	solver := equilibriumtest.New()
	session := equilibrium.NewSession(solver)
	engine := volatiles.NewEngine(volatiles.DefaultMaxIterations, zap.NewNop())
	store := memory.NewStore()

	srv := NewServer(
		volatiles.New(session, engine),
		sweep.New(session, engine, zap.NewNop()),
		runuc.New(runrepo.New(store, time.Hour)),
		healthuc.New(store, nil),
		zap.NewNop(),
	)
	return &testEnv{handler: NewRouter(srv, apiKeys, zap.NewNop()), solver: solver, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

type calcEnvelope[T any] struct {
	RunID  string `json:"run_id"`
	Result T      `json:"result"`
}

// --- Tests ---

func TestSaturationPressure_OK(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/v1/saturation-pressure", `{"sample":`+basaltSample+`,"temperature_c":1200}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[calcEnvelope[saturationPressureResponse]](t, rr)
	if resp.RunID == "" {
		t.Error("expected a run id")
	}
	if resp.Result.PressureBars == nil || *resp.Result.PressureBars <= 0 {
		t.Errorf("expected a positive saturation pressure, got %+v", resp.Result)
	}
	if resp.Result.TemperatureC != 1200 {
		t.Errorf("temperature = %v, want 1200", resp.Result.TemperatureC)
	}

	// the run is retrievable
	rr = env.do(t, "GET", "/v1/runs/"+resp.RunID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get run status %d", rr.Code)
	}
	run := decode[runResponse](t, rr)
	if run.Kind != "saturation_pressure" || run.Status != "succeeded" {
		t.Errorf("unexpected run %+v", run)
	}
}

func TestSaturationPressure_NotSaturated_422(t *testing.T) {
	env := newTestEnv(t)
	env.solver.NoFluid = true

	rr := env.do(t, "POST", "/v1/saturation-pressure", `{"sample":`+basaltSample+`,"temperature_c":1200}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422: %s", rr.Code, rr.Body.String())
	}
	errResp := decode[errorResponse](t, rr)
	if errResp.Code != codeSaturationNotFound {
		t.Errorf("code = %s, want %s", errResp.Code, codeSaturationNotFound)
	}
	if errResp.RunID == "" {
		t.Fatal("failed calculations should still be recorded")
	}

	run := decode[runResponse](t, env.do(t, "GET", "/v1/runs/"+errResp.RunID, ""))
	if run.Status != "failed" || run.Error == "" {
		t.Errorf("expected a failed run with an error message, got %+v", run)
	}
}

func TestDissolvedVolatiles_OK(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/v1/dissolved-volatiles",
		`{"sample":`+basaltSample+`,"temperature_c":1200,"pressure_bars":1000,"xh2o_fluid":0.5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[calcEnvelope[dissolvedVolatilesResponse]](t, rr)
	if resp.Result.H2OLiq == nil || resp.Result.CO2Liq == nil {
		t.Fatalf("expected dissolved contents, got %+v", resp.Result)
	}
	if *resp.Result.H2OLiq <= 0 || *resp.Result.CO2Liq <= 0 {
		t.Errorf("expected positive contents, got H2O %v CO2 %v", *resp.Result.H2OLiq, *resp.Result.CO2Liq)
	}
}

func TestFluidComposition_NoVolatilesShortcut(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/v1/fluid-composition",
		`{"sample":{"composition":{"SiO2":50,"MgO":50}},"temperature_c":1200,"pressure_bars":1000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[calcEnvelope[fluidCompositionResponse]](t, rr)
	if !resp.Result.Shortcut || resp.Result.H2O == nil || *resp.Result.H2O != 0 {
		t.Errorf("expected shortcut {0, 0}, got %+v", resp.Result)
	}
	if env.solver.EquilibrateCalls() != 0 {
		t.Errorf("expected no equilibrate calls, got %d", env.solver.EquilibrateCalls())
	}
}

func TestFluidComposition_SingleVolatileNullMass(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/v1/fluid-composition",
		`{"sample":{"composition":{"SiO2":50,"MgO":47,"H2O":3}},"temperature_c":1200,"pressure_bars":1000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if body := rr.Body.String(); !strings.Contains(body, `"fluid_mass":null`) {
		t.Errorf("NaN fluid mass should be encoded as null: %s", body)
	}
}

func TestIsobars_OK(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/v1/isobars",
		`{"sample":`+basaltSample+`,"temperature_c":1200,"pressures_bars":[1000,2000],"isopleths":[0.3]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[calcEnvelope[isobarsResponse]](t, rr)
	if len(resp.Result.Isobars) != 10 || len(resp.Result.Isopleths) != 2 {
		t.Errorf("expected 10 isobar and 2 isopleth rows, got %d and %d",
			len(resp.Result.Isobars), len(resp.Result.Isopleths))
	}
}

func TestDegassingPath_DefaultSteps(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/v1/degassing-path", `{"sample":`+basaltSample+`,"temperature_c":1200}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[calcEnvelope[degassingPathResponse]](t, rr)
	if len(resp.Result.Rows) != sweep.DefaultDegassingSteps {
		t.Errorf("expected %d rows, got %d", sweep.DefaultDegassingSteps, len(resp.Result.Rows))
	}
	if resp.Result.StartPressureBars != resp.Result.SaturationPressureBars {
		t.Errorf("path should start at saturation, got %+v", resp.Result)
	}
}

func TestCalculation_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode errorCode
	}{
		{"malformed json", "/v1/saturation-pressure", `{"sample":`, codeBadRequest},
		{"unknown field", "/v1/saturation-pressure", `{"sample":` + basaltSample + `,"temp":1200}`, codeBadRequest},
		{"missing temperature", "/v1/saturation-pressure", `{"sample":` + basaltSample + `}`, codeBadRequest},
		{"missing pressure", "/v1/fluid-composition", `{"sample":` + basaltSample + `,"temperature_c":1200}`, codeBadRequest},
		{"empty composition", "/v1/saturation-pressure", `{"sample":{"composition":{}},"temperature_c":1200}`, codeBadRequest},
		{"unknown oxide", "/v1/saturation-pressure", `{"sample":{"composition":{"Xx":1}},"temperature_c":1200}`, codeBadRequest},
		{"invalid basis", "/v1/saturation-pressure",
			`{"sample":{"composition":{"SiO2":50},"basis":"mol_singleO"},"temperature_c":1200}`, codeInvalidBasis},
		{"invalid normalization", "/v1/saturation-pressure",
			`{"sample":{"composition":{"SiO2":50},"normalization":"total"},"temperature_c":1200}`, codeInvalidBasis},
		{"x fluid out of range", "/v1/dissolved-volatiles",
			`{"sample":` + basaltSample + `,"temperature_c":1200,"pressure_bars":1000,"xh2o_fluid":2}`, codeBadRequest},
		{"no pressures", "/v1/isobars", `{"sample":` + basaltSample + `,"temperature_c":1200}`, codeBadRequest},
		{"fractionate out of range", "/v1/degassing-path",
			`{"sample":` + basaltSample + `,"temperature_c":1200,"fractionate_vapor":2}`, codeBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, "POST", tc.path, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400: %s", rr.Code, rr.Body.String())
			}
			if got := decode[errorResponse](t, rr); got.Code != tc.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tc.wantCode)
			}
		})
	}

	// rejected input leaves no runs behind
	list := decode[runListResponse](t, env.do(t, "GET", "/v1/runs", ""))
	if len(list.Runs) != 0 {
		t.Errorf("expected no runs, got %d", len(list.Runs))
	}
}

func TestCalculation_SolverUnavailable_502(t *testing.T) {
	env := newTestEnv(t)
	env.solver.EquilibrateErr = fmt.Errorf("dial: %w", domain.ErrSolverUnavailable)

	rr := env.do(t, "POST", "/v1/fluid-composition", `{"sample":`+basaltSample+`,"temperature_c":1200,"pressure_bars":1000}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502: %s", rr.Code, rr.Body.String())
	}
	errResp := decode[errorResponse](t, rr)
	if errResp.Message != domain.ErrSolverUnavailable.Error() {
		t.Errorf("message %q leaks internals", errResp.Message)
	}
}

func TestRuns_ListAndDelete(t *testing.T) {
	env := newTestEnv(t)

	for range 2 {
		if rr := env.do(t, "POST", "/v1/saturation-pressure", `{"sample":`+basaltSample+`,"temperature_c":1200}`); rr.Code != http.StatusOK {
			t.Fatalf("status %d", rr.Code)
		}
	}

	list := decode[runListResponse](t, env.do(t, "GET", "/v1/runs", ""))
	if len(list.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list.Runs))
	}

	id := list.Runs[0].ID
	if rr := env.do(t, "DELETE", "/v1/runs/"+id, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rr.Code)
	}
	if rr := env.do(t, "GET", "/v1/runs/"+id, ""); rr.Code != http.StatusNotFound {
		t.Errorf("get deleted run: status %d, want 404", rr.Code)
	}
	if rr := env.do(t, "DELETE", "/v1/runs/"+id, ""); rr.Code != http.StatusNotFound {
		t.Errorf("delete twice: status %d, want 404", rr.Code)
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t)

	if rr := env.do(t, "GET", "/v1/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route: status %d, want 404", rr.Code)
	}
	if rr := env.do(t, "GET", "/v1/isobars", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method: status %d, want 405", rr.Code)
	}
}

func TestRouter_AuthRequired(t *testing.T) {
	env := newTestEnv(t, "secret")

	if rr := env.do(t, "GET", "/v1/runs", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rr.Code)
	}
	if rr := env.do(t, "GET", "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health should bypass auth, got %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	resp := decode[healthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks[healthuc.ComponentDatabase] != healthuc.CheckOK {
		t.Errorf("unexpected health %+v", resp)
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/health", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRecoverer_JSON500(t *testing.T) {
	h := Recoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rr.Code)
	}
	if got := decode[errorResponse](t, rr); got.Code != codeInternalError {
		t.Errorf("code = %s, want %s", got.Code, codeInternalError)
	}
}

func TestHandleDomainError_Convergence(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()

	err := fmt.Errorf("isobar: %w", domain.NewConvergenceFailed("dissolved_volatiles", "refine_h2o", 5000))
	env.server.handleDomainError(rr, err, "run-1")

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", rr.Code)
	}
	body := decode[map[string]any](t, rr)
	if body["code"] != string(codeConvergenceFailed) || body["stage"] != "refine_h2o" || body["run_id"] != "run-1" {
		t.Errorf("unexpected body %v", body)
	}
	if body["iterations"] != float64(5000) {
		t.Errorf("iterations = %v, want 5000", body["iterations"])
	}
}

func TestHandleDomainError_Unknown500(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()

	env.server.handleDomainError(rr, errors.New("redis: connection reset by 10.0.0.3"), "")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rr.Code)
	}
	if got := decode[errorResponse](t, rr); got.Message != "internal error" {
		t.Errorf("message %q leaks internals", got.Message)
	}
}
