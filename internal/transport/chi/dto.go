package chi

import (
	"encoding/json"
	"math"

	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	domrun "github.com/kailas-cloud/magmavol/internal/domain/run"
	healthuc "github.com/kailas-cloud/magmavol/internal/usecase/health"
	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// --- Requests ---

type saturationPressureRequest struct {
	Sample       composition.Sample `json:"sample"`
	TemperatureC *float64           `json:"temperature_c"`
}

type dissolvedVolatilesRequest struct {
	Sample       composition.Sample `json:"sample"`
	TemperatureC *float64           `json:"temperature_c"`
	PressureBars *float64           `json:"pressure_bars"`
	// XH2OFluid defaults to 1 (pure water fluid).
	XH2OFluid *float64 `json:"xh2o_fluid,omitempty"`
	H2OGuess  float64  `json:"h2o_guess,omitempty"`
}

type fluidCompositionRequest struct {
	Sample       composition.Sample `json:"sample"`
	TemperatureC *float64           `json:"temperature_c"`
	PressureBars *float64           `json:"pressure_bars"`
}

type isobarsRequest struct {
	Sample          composition.Sample `json:"sample"`
	TemperatureC    *float64           `json:"temperature_c"`
	PressuresBars   []float64          `json:"pressures_bars"`
	Isopleths       []float64          `json:"isopleths,omitempty"`
	SmoothIsobars   bool               `json:"smooth_isobars,omitempty"`
	SmoothIsopleths bool               `json:"smooth_isopleths,omitempty"`
}

type degassingPathRequest struct {
	Sample       composition.Sample `json:"sample"`
	TemperatureC *float64           `json:"temperature_c"`
	// StartPressureBars of 0 or omitted starts at saturation.
	StartPressureBars float64 `json:"start_pressure_bars,omitempty"`
	FractionateVapor  float64 `json:"fractionate_vapor,omitempty"`
	InitVapor         float64 `json:"init_vapor,omitempty"`
	Steps             int     `json:"steps,omitempty"`
}

// --- Responses ---

// calculationResponse wraps every calculation result with the run it was recorded as.
type calculationResponse struct {
	RunID  string `json:"run_id,omitempty"`
	Result any    `json:"result"`
}

type saturationPressureResponse struct {
	TemperatureC      float64  `json:"temperature_c"`
	PressureBars      *float64 `json:"pressure_bars"`
	FluidMass         *float64 `json:"fluid_mass"`
	FluidProportionWt *float64 `json:"fluid_proportion_wt"`
	XH2OFluid         *float64 `json:"xh2o_fluid"`
	XCO2Fluid         *float64 `json:"xco2_fluid"`
	Iterations        int      `json:"iterations"`
	Warning           string   `json:"warning,omitempty"`
}

type dissolvedVolatilesResponse struct {
	TemperatureC      float64  `json:"temperature_c"`
	PressureBars      float64  `json:"pressure_bars"`
	H2OLiq            *float64 `json:"h2o_liq"`
	CO2Liq            *float64 `json:"co2_liq"`
	XH2OFluid         *float64 `json:"xh2o_fluid"`
	XCO2Fluid         *float64 `json:"xco2_fluid"`
	FluidMass         *float64 `json:"fluid_mass"`
	FluidProportionWt *float64 `json:"fluid_proportion_wt"`
	Iterations        int      `json:"iterations"`
}

type fluidCompositionResponse struct {
	H2O               *float64 `json:"h2o"`
	CO2               *float64 `json:"co2"`
	FluidMass         *float64 `json:"fluid_mass"`
	FluidProportionWt *float64 `json:"fluid_proportion_wt"`
	Shortcut          bool     `json:"shortcut"`
}

type isobarsResponse struct {
	Isobars   []sweep.IsobarRow   `json:"isobars"`
	Isopleths []sweep.IsoplethRow `json:"isopleths"`
}

type degassingPathResponse struct {
	SaturationPressureBars float64              `json:"saturation_pressure_bars"`
	StartPressureBars      float64              `json:"start_pressure_bars"`
	Rows                   []sweep.DegassingRow `json:"rows"`
}

type runResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Request   json.RawMessage `json:"request"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

type runListResponse struct {
	Runs []runResponse `json:"runs"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// nullable maps NaN and Inf to JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func saturationToResponse(r volatiles.SaturationResult) saturationPressureResponse {
	return saturationPressureResponse{
		TemperatureC:      r.TemperatureC,
		PressureBars:      nullable(r.PressureBars),
		FluidMass:         nullable(r.FluidMass),
		FluidProportionWt: nullable(r.FluidProportionWt),
		XH2OFluid:         nullable(r.XH2OFluid),
		XCO2Fluid:         nullable(r.XCO2Fluid),
		Iterations:        r.Iterations,
		Warning:           r.Warning,
	}
}

func dissolvedToResponse(r volatiles.DissolvedResult) dissolvedVolatilesResponse {
	return dissolvedVolatilesResponse{
		TemperatureC:      r.TemperatureC,
		PressureBars:      r.PressureBars,
		H2OLiq:            nullable(r.H2OLiq),
		CO2Liq:            nullable(r.CO2Liq),
		XH2OFluid:         nullable(r.XH2OFluid),
		XCO2Fluid:         nullable(r.XCO2Fluid),
		FluidMass:         nullable(r.FluidMass),
		FluidProportionWt: nullable(r.FluidProportionWt),
		Iterations:        r.Iterations,
	}
}

func fluidToResponse(r volatiles.FluidComposition) fluidCompositionResponse {
	return fluidCompositionResponse{
		H2O:               nullable(r.H2O),
		CO2:               nullable(r.CO2),
		FluidMass:         nullable(r.FluidMass),
		FluidProportionWt: nullable(r.FluidProportionWt),
		Shortcut:          r.Shortcut,
	}
}

func isobarsToResponse(r sweep.IsobarResult) isobarsResponse {
	resp := isobarsResponse{Isobars: r.Isobars, Isopleths: r.Isopleths}
	if resp.Isobars == nil {
		resp.Isobars = []sweep.IsobarRow{}
	}
	if resp.Isopleths == nil {
		resp.Isopleths = []sweep.IsoplethRow{}
	}
	return resp
}

func degassingToResponse(r sweep.DegassingResult) degassingPathResponse {
	rows := r.Rows
	if rows == nil {
		rows = []sweep.DegassingRow{}
	}
	return degassingPathResponse{
		SaturationPressureBars: r.SaturationPressureBars,
		StartPressureBars:      r.StartPressureBars,
		Rows:                   rows,
	}
}

func runToResponse(r domrun.Run) runResponse {
	return runResponse{
		ID:        r.ID(),
		Kind:      string(r.Kind()),
		Status:    string(r.Status()),
		Request:   r.Request(),
		Result:    r.Result(),
		Error:     r.ErrorMessage(),
		CreatedAt: r.CreatedAt(),
	}
}
