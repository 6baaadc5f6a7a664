package sweep

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/composition"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
	"github.com/kailas-cloud/magmavol/internal/usecase/volatiles"
)

// IsobarTargets are the fluid compositions every isobar is built from.
var IsobarTargets = []float64{0, 0.25, 0.5, 0.75, 1}

// IsobarRequest describes an isobar/isopleth sweep.
type IsobarRequest struct {
	TemperatureC    float64
	PressuresBars   []float64
	Isopleths       []float64
	SmoothIsobars   bool
	SmoothIsopleths bool
}

// IsobarResult holds the isobar and isopleth tables.
type IsobarResult struct {
	Isobars   []IsobarRow   `json:"isobars"`
	Isopleths []IsoplethRow `json:"isopleths"`
}

func (r IsobarRequest) validate() error {
	if math.IsNaN(r.TemperatureC) || math.IsInf(r.TemperatureC, 0) {
		return fmt.Errorf("%w: temperature must be finite", domain.ErrInvalidInput)
	}
	if len(r.PressuresBars) == 0 {
		return fmt.Errorf("%w: at least one pressure is required", domain.ErrInvalidInput)
	}
	for _, p := range r.PressuresBars {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return fmt.Errorf("%w: pressure must be a finite positive number, got %v", domain.ErrInvalidInput, p)
		}
	}
	for _, x := range r.Isopleths {
		if err := volatiles.ValidateXFluid(x); err != nil {
			return err
		}
	}
	return nil
}

// fluidTargets merges the requested isopleths with IsobarTargets, sorted and deduplicated.
func fluidTargets(isopleths []float64) []float64 {
	all := slices.Concat(isopleths, IsobarTargets)
	slices.Sort(all)
	return slices.Compact(all)
}

// IsobarsAndIsopleths computes dissolved H2O/CO2 at each pressure for the
// isobar control points and the requested isopleths. Within a pressure the
// converged H2O of one target seeds the search for the next.
func (s *Service) IsobarsAndIsopleths(
	ctx context.Context, comp *composition.Composition, req IsobarRequest,
) (IsobarResult, error) {
	if err := req.validate(); err != nil {
		return IsobarResult{}, err
	}

	pressures := slices.Clone(req.PressuresBars)
	slices.Sort(pressures)
	targets := fluidTargets(req.Isopleths)

	var res IsobarResult
	err := s.withLease(ctx, comp, func(lease *equilibrium.Lease) error {
		for _, p := range pressures {
			s.logger.Debug("Calculating isobar", zap.Float64("pressure_bars", p))
			guess := 0.0
			for _, x := range targets {
				r, err := s.engine.DissolvedVolatiles(ctx, lease, comp, req.TemperatureC, p, x, guess)
				if err != nil {
					return fmt.Errorf("isobar at %g bars, X_fluid %g: %w", p, x, err)
				}
				if slices.Contains(IsobarTargets, x) {
					res.Isobars = append(res.Isobars, IsobarRow{PressureBars: p, H2OLiq: r.H2OLiq, CO2Liq: r.CO2Liq})
				}
				if slices.Contains(req.Isopleths, x) {
					res.Isopleths = append(res.Isopleths, IsoplethRow{
						XH2OFluid: x, PressureBars: p, H2OLiq: r.H2OLiq, CO2Liq: r.CO2Liq,
					})
				}
				guess = r.H2OLiq
			}
		}
		return nil
	})
	if err != nil {
		return IsobarResult{}, err
	}

	sort.SliceStable(res.Isopleths, func(i, j int) bool {
		return res.Isopleths[i].XH2OFluid < res.Isopleths[j].XH2OFluid
	})

	return s.smooth(res, req)
}

func (s *Service) smooth(res IsobarResult, req IsobarRequest) (IsobarResult, error) {
	if s.smoother == nil {
		return res, nil
	}
	var err error
	if req.SmoothIsobars {
		if res.Isobars, err = s.smoother.SmoothIsobars(res.Isobars); err != nil {
			return IsobarResult{}, fmt.Errorf("smooth isobars: %w", err)
		}
	}
	if req.SmoothIsopleths && len(res.Isopleths) > 0 {
		if res.Isopleths, err = s.smoother.SmoothIsopleths(res.Isopleths); err != nil {
			return IsobarResult{}, fmt.Errorf("smooth isopleths: %w", err)
		}
	}
	return res, nil
}
