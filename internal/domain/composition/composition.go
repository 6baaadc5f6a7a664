// Package composition models a magma's oxide chemistry: basis conversions,
// normalization policies and the one-oxygen formula weight.
package composition

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/magmavol/internal/domain"
)

// Composition is a magma composition stored canonically as oxide wt%.
// Every recognized oxide is present; oxides not supplied are zero.
// A Composition is not safe for concurrent mutation.
type Composition struct {
	wt           oxideValues
	defaultNorm  Normalization
	defaultBasis Basis
}

// New builds a Composition from values expressed in basis.
// wt% input is stored as given; mole-based input is converted and normalized to 100 wt%.
// For MolCations the keys are cation names (e.g. "Si", "Fe3").
func New(values map[string]float64, basis Basis) (*Composition, error) {
	if !basis.IsInput() {
		return nil, fmt.Errorf("%w: %q cannot be used as input basis", domain.ErrInvalidBasis, basis)
	}

	parsed, err := parseInput(values, basis)
	if err != nil {
		return nil, err
	}

	var wt oxideValues
	switch basis {
	case WtPercentOxides:
		wt = parsed
	case MolOxides:
		wt, err = fromMolOxides(parsed)
	case MolCations:
		wt, err = fromMolCations(parsed)
	}
	if err != nil {
		return nil, err
	}

	c := &Composition{
		wt:           make(oxideValues, len(Oxides)),
		defaultNorm:  NormNone,
		defaultBasis: WtPercentOxides,
	}
	for _, ox := range Oxides {
		c.wt[ox] = wt[ox]
	}
	return c, nil
}

// MustNew is New that panics on error. Intended for fixtures.
func MustNew(values map[string]float64, basis Basis) *Composition {
	c, err := New(values, basis)
	if err != nil {
		panic(err)
	}
	return c
}

func parseInput(values map[string]float64, basis Basis) (oxideValues, error) {
	out := make(oxideValues, len(values))
	for key, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("%w: %s must be a finite non-negative number, got %v", domain.ErrInvalidInput, key, v)
		}
		ox := Oxide(key)
		if basis == MolCations {
			var ok bool
			if ox, ok = OxideForCation(key); !ok {
				return nil, fmt.Errorf("%w: unknown cation %q", domain.ErrInvalidInput, key)
			}
		} else if !ox.IsValid() {
			return nil, fmt.Errorf("%w: unknown oxide %q", domain.ErrInvalidInput, key)
		}
		out[ox] = v
	}
	return out, nil
}

// SetDefaultNormalization sets the policy Get uses when none is requested.
func (c *Composition) SetDefaultNormalization(n Normalization) error {
	if !n.IsValid() {
		return fmt.Errorf("%w: unknown normalization %q", domain.ErrInvalidBasis, n)
	}
	c.defaultNorm = n
	return nil
}

// SetDefaultBasis sets the basis Get returns when none is requested.
func (c *Composition) SetDefaultBasis(b Basis) error {
	if !b.IsValid() {
		return fmt.Errorf("%w: unknown basis %q", domain.ErrInvalidBasis, b)
	}
	c.defaultBasis = b
	return nil
}

// DefaultNormalization returns the per-instance default policy.
func (c *Composition) DefaultNormalization() Normalization { return c.defaultNorm }

// DefaultBasis returns the per-instance default return basis.
func (c *Composition) DefaultBasis() Basis { return c.defaultBasis }

// Get returns the composition in basis after applying normalization.
// Empty arguments fall back to the instance defaults. With excludeVolatiles,
// H2O and CO2 are dropped before normalization and conversion, so
// fixedvolatiles then behaves as if the sample never held volatiles.
func (c *Composition) Get(n Normalization, basis Basis, excludeVolatiles bool) (Values, error) {
	if n == "" {
		n = c.defaultNorm
	}
	if basis == "" {
		basis = c.defaultBasis
	}
	if !basis.IsValid() {
		return nil, fmt.Errorf("%w: unknown basis %q", domain.ErrInvalidBasis, basis)
	}

	working := c.wt
	if excludeVolatiles {
		working = c.wt.clone()
		delete(working, H2O)
		delete(working, CO2)
	}

	normed, err := normalize(working, n)
	if err != nil {
		return nil, err
	}

	switch basis {
	case MolOxides:
		return toMolOxides(normed)
	case MolCations:
		return toMolCations(normed)
	case MolSingleO:
		return toMolSingleO(normed)
	default:
		return normed.values(), nil
	}
}

// WtPercent returns the un-normalized oxide wt% values.
func (c *Composition) WtPercent() Values { return c.wt.values() }

// Value returns the wt% of one oxide (zero for unrecognized oxides).
func (c *Composition) Value(ox Oxide) float64 { return c.wt[ox] }

// SetValue overwrites one oxide in place. No normalization is applied until Get.
func (c *Composition) SetValue(ox Oxide, v float64) error {
	if !ox.IsValid() {
		return fmt.Errorf("%w: unknown oxide %q", domain.ErrInvalidInput, ox)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", domain.ErrInvalidInput, ox, v)
	}
	c.wt[ox] = v
	return nil
}

// SetVolatiles overwrites H2O and CO2 together.
func (c *Composition) SetVolatiles(h2o, co2 float64) error {
	if err := c.SetValue(H2O, h2o); err != nil {
		return err
	}
	return c.SetValue(CO2, co2)
}

// Normalize rewrites the stored values with the given policy.
func (c *Composition) Normalize(n Normalization) error {
	normed, err := normalize(c.wt, n)
	if err != nil {
		return err
	}
	c.wt = normed
	return nil
}

// Clone returns an independent copy with the same defaults.
func (c *Composition) Clone() *Composition {
	return &Composition{wt: c.wt.clone(), defaultNorm: c.defaultNorm, defaultBasis: c.defaultBasis}
}

// FormulaWeight returns the formula weight on a one-oxygen basis:
// oxygen plus each cation's single-O moles times its atomic mass.
func (c *Composition) FormulaWeight(excludeVolatiles bool) (float64, error) {
	cations, err := c.Get("", MolSingleO, excludeVolatiles)
	if err != nil {
		return 0, fmt.Errorf("single-O basis: %w", err)
	}
	fw := OxygenMass
	for _, cation := range cations.Keys() {
		ox, ok := OxideForCation(cation)
		if !ok {
			continue
		}
		fw += cations[cation] * species[ox].CationMass
	}
	return fw, nil
}
