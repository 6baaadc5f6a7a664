package composition

import (
	"fmt"

	"github.com/kailas-cloud/magmavol/internal/domain"
)

func normalize(ov oxideValues, n Normalization) (oxideValues, error) {
	switch n {
	case NormNone:
		return ov.clone(), nil
	case NormStandard:
		return scaleTo(ov, 100)
	case NormFixedVolatiles:
		return normalizeFixedVolatiles(ov)
	case NormAdditionalVolatiles:
		return normalizeAdditionalVolatiles(ov)
	default:
		return nil, fmt.Errorf("%w: unknown normalization %q", domain.ErrInvalidBasis, n)
	}
}

// normalizeFixedVolatiles rescales non-volatiles to 100 minus the volatile total.
func normalizeFixedVolatiles(ov oxideValues) (oxideValues, error) {
	volatiles := ov.sum(Oxide.IsVolatile)
	majors := ov.sum(nonVolatile)
	if majors <= 0 {
		return nil, fmt.Errorf("%w: no non-volatile oxides to normalize", domain.ErrInvalidInput)
	}
	out := make(oxideValues, len(ov))
	ov.each(func(ox Oxide, v float64) {
		if ox.IsVolatile() {
			out[ox] = v
			return
		}
		out[ox] = v / majors * (100 - volatiles)
	})
	return out, nil
}

// normalizeAdditionalVolatiles rescales non-volatiles to 100 and keeps volatiles as given.
func normalizeAdditionalVolatiles(ov oxideValues) (oxideValues, error) {
	majors := ov.sum(nonVolatile)
	if majors <= 0 {
		return nil, fmt.Errorf("%w: no non-volatile oxides to normalize", domain.ErrInvalidInput)
	}
	out := make(oxideValues, len(ov))
	ov.each(func(ox Oxide, v float64) {
		if ox.IsVolatile() {
			out[ox] = v
			return
		}
		out[ox] = v / majors * 100
	})
	return out, nil
}
