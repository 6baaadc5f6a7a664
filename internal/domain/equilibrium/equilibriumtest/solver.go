// Package equilibriumtest provides an analytic equilibrium.Solver for tests.
//
// The model has a single H2O-CO2 fluid that appears once
// H2O/S_H2O(P) + CO2/S_CO2(P) exceeds 1. The fluid's H2O mole fraction equals
// the molar H2O/(H2O+CO2) ratio of the bulk, so adding H2O always raises it and
// adding CO2 always lowers it.
package equilibriumtest

import (
	"context"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
)

const (
	h2oMolarMass = 18.02
	co2MolarMass = 44.01
)

// Solver is a deterministic, monotonic Solver double. Safe for concurrent use.
type Solver struct {
	// H2OSolubility returns dissolved H2O capacity (wt%) at a pressure in MPa.
	H2OSolubility func(pressureMPa float64) float64
	// CO2Solubility returns dissolved CO2 capacity (wt%) at a pressure in MPa.
	CO2Solubility func(pressureMPa float64) float64
	// NoFluid suppresses the fluid phase at every condition.
	NoFluid bool
	// Infeasible makes SetBulkComposition report every composition as infeasible.
	Infeasible bool
	// EquilibrateErr is returned by Equilibrate when set.
	EquilibrateErr error

	mu               sync.Mutex
	bulk             map[string]float64
	setCalls         int
	equilibrateCalls int
	history          []map[string]float64
}

// New returns a Solver with S_H2O = 0.4*sqrt(P) and S_CO2 = 0.001*P.
func New() *Solver {
	return &Solver{
		H2OSolubility: func(p float64) float64 { return 0.4 * math.Sqrt(p) },
		CO2Solubility: func(p float64) float64 { return 0.001 * p },
	}
}

// SetBulkComposition records the composition.
func (s *Solver) SetBulkComposition(_ context.Context, oxides map[string]float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	s.bulk = maps.Clone(oxides)
	s.history = append(s.history, maps.Clone(oxides))
	return !s.Infeasible, nil
}

// Equilibrate solves the analytic model at the current bulk composition.
func (s *Solver) Equilibrate(_ context.Context, temperatureC, pressureMPa float64) (equilibrium.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.equilibrateCalls++
	if s.EquilibrateErr != nil {
		return equilibrium.State{}, s.EquilibrateErr
	}

	h, c := s.bulk["H2O"], s.bulk["CO2"]
	var total float64
	for _, k := range slices.Sorted(maps.Keys(s.bulk)) {
		total += s.bulk[k]
	}

	ratio := 0.0
	if !s.NoFluid && pressureMPa > 0 {
		ratio = h/s.H2OSolubility(pressureMPa) + c/s.CO2Solubility(pressureMPa)
	}

	st := equilibrium.State{
		Status:       "success",
		TemperatureC: temperatureC,
		PressureMPa:  pressureMPa,
		Phases:       map[string]equilibrium.Phase{equilibrium.PhaseSystem: {Mass: total}},
	}

	if ratio <= 1 {
		st.Phases[equilibrium.PhaseLiquid] = equilibrium.Phase{Mass: total, OxideWt: liquidOxides(s.bulk, h, c, total)}
		return st, nil
	}

	hLiq, cLiq := h/ratio, c/ratio
	hFl, cFl := h-hLiq, c-cLiq
	fluidMass := hFl + cFl
	liquidMass := total - fluidMass
	st.Phases[equilibrium.PhaseLiquid] = equilibrium.Phase{
		Mass:    liquidMass,
		OxideWt: liquidOxides(s.bulk, hLiq, cLiq, liquidMass),
	}

	nh, nc := hFl/h2oMolarMass, cFl/co2MolarMass
	fluid := equilibrium.Phase{Mass: fluidMass, OxideWt: map[string]float64{}, Components: map[string]float64{}}
	if nh > 0 {
		fluid.Components[equilibrium.ComponentWater] = nh / (nh + nc)
		fluid.OxideWt["H2O"] = 100 * hFl / fluidMass
	}
	if nc > 0 {
		fluid.Components[equilibrium.ComponentCarbonDioxide] = nc / (nh + nc)
		fluid.OxideWt["CO2"] = 100 * cFl / fluidMass
	}
	st.Phases[equilibrium.PhaseFluid] = fluid
	return st, nil
}

func liquidOxides(bulk map[string]float64, h2o, co2, mass float64) map[string]float64 {
	out := make(map[string]float64, len(bulk))
	if mass <= 0 {
		return out
	}
	for k, v := range bulk {
		if k == "H2O" || k == "CO2" || v == 0 {
			continue
		}
		out[k] = 100 * v / mass
	}
	if h2o > 0 {
		out["H2O"] = 100 * h2o / mass
	}
	if co2 > 0 {
		out["CO2"] = 100 * co2 / mass
	}
	return out
}

// SaturatedAt reports whether the model holds a fluid for the given volatiles at pressureMPa.
func (s *Solver) SaturatedAt(h2o, co2, pressureMPa float64) bool {
	if s.NoFluid {
		return false
	}
	return h2o/s.H2OSolubility(pressureMPa)+co2/s.CO2Solubility(pressureMPa) > 1
}

// Calls returns the total number of SetBulkComposition and Equilibrate calls.
func (s *Solver) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls + s.equilibrateCalls
}

// EquilibrateCalls returns the number of Equilibrate calls.
func (s *Solver) EquilibrateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.equilibrateCalls
}

// Bulk returns the composition currently set.
func (s *Solver) Bulk() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.bulk)
}

// History returns every composition passed to SetBulkComposition, in order.
func (s *Solver) History() []map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]float64, len(s.history))
	copy(out, s.history)
	return out
}
