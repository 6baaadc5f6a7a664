// Package equilibrium defines the port to an external thermodynamic equilibrium solver
// and the result types it returns.
package equilibrium

import "context"

// Phase names reported by the solver.
const (
	PhaseFluid  = "Fluid"
	PhaseLiquid = "Liquid"
	PhaseSystem = "System"
)

// Fluid endmember component names (mode=component).
const (
	ComponentWater         = "Water"
	ComponentCarbonDioxide = "Carbon Dioxide"
)

// Mode selects how a phase composition is expressed.
type Mode string

// Phase composition modes.
const (
	// ModeOxideWt is oxide wt% keyed by oxide name.
	ModeOxideWt Mode = "oxide_wt"
	// ModeComponent is endmember mole fractions keyed by component name.
	ModeComponent Mode = "component"
)

// Solver is the external equilibrium engine. Implementations hold session-wide
// state (the current bulk composition), so callers go through a Session.
type Solver interface {
	// SetBulkComposition sets the oxide wt% bulk composition used by the next Equilibrate.
	// feasible=false means the solver rejected the composition; it is not an error.
	SetBulkComposition(ctx context.Context, oxides map[string]float64) (feasible bool, err error)
	// Equilibrate solves at temperature (°C) and pressure (MPa).
	Equilibrate(ctx context.Context, temperatureC, pressureMPa float64) (State, error)
}

// HealthChecker verifies solver availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Phase is one equilibrium phase.
type Phase struct {
	Mass       float64            `json:"mass"`
	OxideWt    map[string]float64 `json:"oxide_wt,omitempty"`
	Components map[string]float64 `json:"component,omitempty"`
}

// State is the solver output for one (T, P) query.
type State struct {
	Status       string           `json:"status"`
	TemperatureC float64          `json:"temperature_c"`
	PressureMPa  float64          `json:"pressure_mpa"`
	Phases       map[string]Phase `json:"phases"`
}

// PhaseMass returns the mass of a phase in grams; absent phases weigh 0.
func (s State) PhaseMass(name string) float64 {
	return s.Phases[name].Mass
}

// SystemMass returns the "System" phase mass, or the sum of all phases when it is not reported.
func (s State) SystemMass() float64 {
	if p, ok := s.Phases[PhaseSystem]; ok {
		return p.Mass
	}
	var total float64
	for _, p := range s.Phases {
		total += p.Mass
	}
	return total
}

// PhaseComposition returns the composition of a phase. Absent phases yield an empty Lookup.
func (s State) PhaseComposition(name string, mode Mode) Lookup {
	p, ok := s.Phases[name]
	if !ok {
		return Lookup{}
	}
	if mode == ModeComponent {
		return Lookup{values: p.Components}
	}
	return Lookup{values: p.OxideWt}
}

// Lookup is a read-only composition with explicit handling of missing keys.
type Lookup struct {
	values map[string]float64
}

// NewLookup wraps a map.
func NewLookup(values map[string]float64) Lookup { return Lookup{values: values} }

// Get returns the value and whether the key was reported.
func (l Lookup) Get(key string) (float64, bool) {
	v, ok := l.values[key]
	return v, ok
}

// Or returns the value or def when the key is absent.
func (l Lookup) Or(key string, def float64) float64 {
	if v, ok := l.values[key]; ok {
		return v
	}
	return def
}

// Len returns the number of reported keys.
func (l Lookup) Len() int { return len(l.values) }
