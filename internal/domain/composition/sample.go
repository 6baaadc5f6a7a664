package composition

import (
	"fmt"

	"github.com/kailas-cloud/magmavol/internal/domain"
)

// Sample is a composition as callers submit it: values in a named basis,
// optionally normalized before any calculation.
type Sample struct {
	Values        map[string]float64 `json:"composition" yaml:"composition"`
	Basis         string             `json:"basis,omitempty" yaml:"basis,omitempty"`
	Normalization string             `json:"normalization,omitempty" yaml:"normalization,omitempty"`
}

// Build parses the sample. An empty basis means wt% oxides; an empty
// normalization leaves the values as given.
func (s Sample) Build() (*Composition, error) {
	if len(s.Values) == 0 {
		return nil, fmt.Errorf("%w: composition is empty", domain.ErrInvalidInput)
	}

	basis := WtPercentOxides
	if s.Basis != "" {
		basis = Basis(s.Basis)
	}
	c, err := New(s.Values, basis)
	if err != nil {
		return nil, err
	}

	if s.Normalization == "" {
		return c, nil
	}
	norm := Normalization(s.Normalization)
	if !norm.IsValid() {
		return nil, fmt.Errorf("%w: unknown normalization %q", domain.ErrInvalidBasis, s.Normalization)
	}
	if err := c.Normalize(norm); err != nil {
		return nil, fmt.Errorf("normalize sample: %w", err)
	}
	return c, nil
}
