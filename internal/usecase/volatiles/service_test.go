package volatiles

import (
	"context"
	"errors"
	"maps"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium/equilibriumtest"
)

// --- Fixtures ---

func basalt(t *testing.T) *composition.Composition {
	t.Helper()
	c, err := composition.New(map[string]float64{
		"SiO2": 50, "Al2O3": 15, "FeO": 8, "MgO": 9, "CaO": 11,
		"Na2O": 3, "K2O": 1, "H2O": 3, "CO2": 0.5,
	}, composition.WtPercentOxides)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func lowVolatileBasalt(t *testing.T) *composition.Composition {
	t.Helper()
	c, err := composition.New(map[string]float64{
		"SiO2": 50, "Al2O3": 15, "FeO": 8, "MgO": 9, "CaO": 11,
		"Na2O": 3, "K2O": 1, "H2O": 2,
	}, composition.WtPercentOxides)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newService(solver equilibrium.Solver, maxIterations int) *Service {
	return New(equilibrium.NewSession(solver), NewEngine(maxIterations, zap.NewNop()))
}

// --- Saturation ---

func TestSaturationPressure_FindsBoundary(t *testing.T) {
	solver := equilibriumtest.New()
	svc := newService(solver, DefaultMaxIterations)

	res, err := svc.SaturationPressure(context.Background(), basalt(t), 1200)
	if err != nil {
		t.Fatal(err)
	}
	if res.Warning != "" {
		t.Errorf("unexpected warning %q", res.Warning)
	}

	pMPa := res.PressureBars / 10
	if pMPa <= 0 || pMPa >= saturationStartMPa {
		t.Fatalf("saturation pressure out of range: %v bars", res.PressureBars)
	}
	if !solver.SaturatedAt(3, 0.5, pMPa) {
		t.Errorf("no fluid at reported pressure %v MPa", pMPa)
	}
	if solver.SaturatedAt(3, 0.5, pMPa+1) {
		t.Errorf("fluid already present at %v MPa, search stopped too low", pMPa+1)
	}
	if math.Abs(res.XH2OFluid+res.XCO2Fluid-1) > 1e-12 {
		t.Errorf("fluid fractions do not sum to 1: %v + %v", res.XH2OFluid, res.XCO2Fluid)
	}
	if res.FluidProportionWt <= 0 {
		t.Errorf("expected positive fluid proportion, got %v", res.FluidProportionWt)
	}
}

func TestSaturationPressure_NoFluidReturnsNaN(t *testing.T) {
	solver := equilibriumtest.New()
	solver.NoFluid = true
	svc := newService(solver, DefaultMaxIterations)

	res, err := svc.SaturationPressure(context.Background(), basalt(t), 1200)
	if !errors.Is(err, domain.ErrSaturationNotFound) {
		t.Fatalf("expected ErrSaturationNotFound, got %v", err)
	}
	var se *domain.SearchError
	if !errors.As(err, &se) || se.Protocol != ProtocolSaturation || se.Stage != "final" {
		t.Errorf("expected SearchError in final stage, got %+v", se)
	}
	if !math.IsNaN(res.PressureBars) || !math.IsNaN(res.XH2OFluid) || !math.IsNaN(res.FluidProportionWt) {
		t.Errorf("expected NaN fields, got %+v", res)
	}
	if res.Warning == "" {
		t.Error("expected a warning on the result")
	}
	// 1900..100 by 100, 90..10 by 10, 9..1 by 1
	if got := solver.EquilibrateCalls(); got != 37 {
		t.Errorf("expected 37 equilibrate calls, got %d", got)
	}
}

func TestSaturationPressure_BelowFirstCoarseStep(t *testing.T) {
	solver := equilibriumtest.New()
	svc := newService(solver, DefaultMaxIterations)

	// S_H2O = 0.4*sqrt(P): 2 wt% H2O saturates between 24 and 25 MPa
	res, err := svc.SaturationPressure(context.Background(), lowVolatileBasalt(t), 1200)
	if err != nil {
		t.Fatalf("expected a saturation pressure, got %v", err)
	}
	if res.PressureBars != 240 {
		t.Errorf("expected 240 bars, got %v", res.PressureBars)
	}
	pMPa := res.PressureBars / 10
	if !solver.SaturatedAt(2, 0, pMPa) {
		t.Errorf("no fluid at reported pressure %v MPa", pMPa)
	}
	if solver.SaturatedAt(2, 0, pMPa+1) {
		t.Errorf("fluid already present at %v MPa, search stopped too low", pMPa+1)
	}
	if res.XH2OFluid != 1 {
		t.Errorf("expected a pure H2O fluid, got X_H2O=%v", res.XH2OFluid)
	}
	// 1900..100, 90..20, 29..24
	if got := solver.EquilibrateCalls(); got != 19+8+6 {
		t.Errorf("expected %d equilibrate calls, got %d", 19+8+6, got)
	}
}

func TestSaturationPressure_IterationGuard(t *testing.T) {
	svc := newService(equilibriumtest.New(), 5)

	_, err := svc.SaturationPressure(context.Background(), basalt(t), 1200)
	if !errors.Is(err, domain.ErrConvergenceFailed) {
		t.Fatalf("expected ErrConvergenceFailed, got %v", err)
	}
}

func TestSaturationPressure_RestoresOriginal(t *testing.T) {
	solver := equilibriumtest.New()
	svc := newService(solver, DefaultMaxIterations)
	comp := basalt(t)

	if _, err := svc.SaturationPressure(context.Background(), comp, 1200); err != nil {
		t.Fatal(err)
	}
	if !maps.Equal(solver.Bulk(), comp.WtPercent()) {
		t.Errorf("solver left on %v, want original %v", solver.Bulk(), comp.WtPercent())
	}
}

func TestSaturationPressure_InvalidTemperature(t *testing.T) {
	svc := newService(equilibriumtest.New(), 0)
	_, err := svc.SaturationPressure(context.Background(), basalt(t), math.Inf(1))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// --- Dissolved volatiles ---

func TestDissolvedVolatiles_ConvergesToTarget(t *testing.T) {
	for _, target := range []float64{0.1, 0.3, 0.5, 0.75, 0.999} {
		solver := equilibriumtest.New()
		svc := newService(solver, DefaultMaxIterations)

		res, err := svc.DissolvedVolatiles(context.Background(), basalt(t), 1200, 1000, target, 0)
		if err != nil {
			t.Fatalf("X=%v: %v", target, err)
		}
		if d := math.Abs(res.XH2OFluid - target); d > FinalTolerance {
			t.Errorf("X=%v: fluid X_H2O=%v, off by %v", target, res.XH2OFluid, d)
		}
		if res.FluidMass <= 0 {
			t.Errorf("X=%v: expected a fluid phase, got mass %v", target, res.FluidMass)
		}
		if res.H2OLiq <= 0 || res.CO2Liq <= 0 {
			t.Errorf("X=%v: expected dissolved H2O and CO2, got %v / %v", target, res.H2OLiq, res.CO2Liq)
		}
		if res.PressureBars != 1000 {
			t.Errorf("X=%v: pressure %v, want 1000", target, res.PressureBars)
		}
	}
}

func TestDissolvedVolatiles_Endmembers(t *testing.T) {
	svc := newService(equilibriumtest.New(), DefaultMaxIterations)
	ctx := context.Background()

	pure, err := svc.DissolvedVolatiles(ctx, basalt(t), 1200, 1000, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pure.XH2OFluid != 1 || pure.CO2Liq != 0 {
		t.Errorf("X=1: expected pure water fluid and no CO2, got %+v", pure)
	}
	if pure.H2OLiq < 3.9 {
		t.Errorf("X=1: H2O solubility at 100 MPa should be ~4 wt%%, got %v", pure.H2OLiq)
	}

	dry, err := svc.DissolvedVolatiles(ctx, basalt(t), 1200, 1000, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dry.XH2OFluid != 0 || dry.H2OLiq != 0 {
		t.Errorf("X=0: expected pure CO2 fluid, got %+v", dry)
	}
}

func TestDissolvedVolatiles_DoesNotMutateInput(t *testing.T) {
	svc := newService(equilibriumtest.New(), DefaultMaxIterations)
	comp := basalt(t)
	before := comp.WtPercent()

	if _, err := svc.DissolvedVolatiles(context.Background(), comp, 1200, 1000, 0.5, 0); err != nil {
		t.Fatal(err)
	}
	if !maps.Equal(before, comp.WtPercent()) {
		t.Error("input composition was modified")
	}
}

func TestDissolvedVolatiles_InvalidInput(t *testing.T) {
	svc := newService(equilibriumtest.New(), DefaultMaxIterations)
	ctx := context.Background()

	tests := []struct {
		name                 string
		pressure, x, h2o, tc float64
	}{
		{"x below range", 1000, 0.0005, 0, 1200},
		{"x above range", 1000, 0.9995, 0, 1200},
		{"x NaN", 1000, math.NaN(), 0, 1200},
		{"negative guess", 1000, 0.5, -1, 1200},
		{"zero pressure", 0, 0.5, 0, 1200},
		{"infinite temperature", 1000, 0.5, 0, math.Inf(-1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.DissolvedVolatiles(ctx, basalt(t), tc.tc, tc.pressure, tc.x, tc.h2o)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestDissolvedVolatiles_NoFluidHitsGuard(t *testing.T) {
	solver := equilibriumtest.New()
	solver.NoFluid = true
	svc := newService(solver, 50)

	_, err := svc.DissolvedVolatiles(context.Background(), basalt(t), 1200, 1000, 0.5, 0)
	var se *domain.SearchError
	if !errors.As(err, &se) || se.Stage != "feasibility" || se.Iterations != 50 {
		t.Fatalf("expected feasibility SearchError after 50 iterations, got %v", err)
	}
	if !errors.Is(err, domain.ErrConvergenceFailed) {
		t.Errorf("expected ErrConvergenceFailed, got %v", err)
	}
}

func TestDissolvedVolatiles_Canceled(t *testing.T) {
	svc := newService(equilibriumtest.New(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DissolvedVolatiles(ctx, basalt(t), 1200, 1000, 0.5, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDissolvedVolatiles_SolverError(t *testing.T) {
	solver := equilibriumtest.New()
	solver.EquilibrateErr = domain.ErrSolverUnavailable
	svc := newService(solver, DefaultMaxIterations)

	_, err := svc.DissolvedVolatiles(context.Background(), basalt(t), 1200, 1000, 0.5, 0)
	if !errors.Is(err, domain.ErrSolverUnavailable) {
		t.Fatalf("expected ErrSolverUnavailable, got %v", err)
	}
}

// --- Equilibrium fluid composition ---

func TestEquilibriumFluidComp_Shortcuts(t *testing.T) {
	tests := []struct {
		name     string
		h2o, co2 float64
		wantH2O  float64
		wantCO2  float64
	}{
		{"no volatiles", 0, 0, 0, 0},
		{"only CO2", 0, 0.5, 0, 1},
		{"only H2O", 3, 0, 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			solver := equilibriumtest.New()
			svc := newService(solver, DefaultMaxIterations)
			comp := basalt(t)
			if err := comp.SetVolatiles(tc.h2o, tc.co2); err != nil {
				t.Fatal(err)
			}

			engine := svc.Engine()
			res, err := engine.EquilibriumFluidComp(context.Background(), solver, comp, 1200, 1000)
			if err != nil {
				t.Fatal(err)
			}
			if res.H2O != tc.wantH2O || res.CO2 != tc.wantCO2 || !res.Shortcut {
				t.Errorf("got %+v, want H2O=%v CO2=%v", res, tc.wantH2O, tc.wantCO2)
			}
			if n := solver.Calls(); n != 0 {
				t.Errorf("expected no solver calls, got %d", n)
			}
		})
	}
}

func TestEquilibriumFluidComp_QueriesSolver(t *testing.T) {
	solver := equilibriumtest.New()
	svc := newService(solver, DefaultMaxIterations)

	res, err := svc.EquilibriumFluidComp(context.Background(), basalt(t), 1200, 1000)
	if err != nil {
		t.Fatal(err)
	}
	nh, nc := 3/18.02, 0.5/44.01
	want := nh / (nh + nc)
	if math.Abs(res.H2O-want) > 1e-9 || math.Abs(res.H2O+res.CO2-1) > 1e-12 {
		t.Errorf("got H2O=%v CO2=%v, want H2O=%v", res.H2O, res.CO2, want)
	}
	if res.Shortcut || res.FluidMass <= 0 || res.FluidProportionWt <= 0 {
		t.Errorf("expected a queried, fluid-bearing result, got %+v", res)
	}
}

func TestEquilibriumFluidComp_Undersaturated(t *testing.T) {
	solver := equilibriumtest.New()
	svc := newService(solver, DefaultMaxIterations)

	// 10 kbar is well above saturation for a nearly dry melt
	comp := basalt(t)
	if err := comp.SetVolatiles(0.1, 0.01); err != nil {
		t.Fatal(err)
	}
	res, err := svc.EquilibriumFluidComp(context.Background(), comp, 1200, 10000)
	if err != nil {
		t.Fatal(err)
	}
	if res.H2O != 0 || res.CO2 != 0 || res.FluidMass != 0 {
		t.Errorf("expected no fluid, got %+v", res)
	}
}

func TestValidateXFluid(t *testing.T) {
	for _, x := range []float64{0, 1, 0.001, 0.5, 0.999} {
		if err := ValidateXFluid(x); err != nil {
			t.Errorf("ValidateXFluid(%v) = %v", x, err)
		}
	}
	for _, x := range []float64{-0.1, 0.0009, 0.9991, 1.5, math.Inf(1)} {
		if err := ValidateXFluid(x); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ValidateXFluid(%v) = %v, want ErrInvalidInput", x, err)
		}
	}
}
