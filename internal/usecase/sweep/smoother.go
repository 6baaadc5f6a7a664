package sweep

import (
	"errors"
	"math"
	"slices"
)

// DefaultSmoothPoints is the number of points emitted per smoothed curve.
const DefaultSmoothPoints = 51

var errSingular = errors.New("singular normal equations")

// PolySmoother fits each isobar with a quadratic CO2(H2O) least-squares
// polynomial and each isopleth with straight lines through the origin in
// pressure (nothing dissolves at zero pressure).
type PolySmoother struct {
	points int
}

// NewPolySmoother creates a smoother that emits points samples per curve.
func NewPolySmoother(points int) *PolySmoother {
	if points < 2 {
		points = DefaultSmoothPoints
	}
	return &PolySmoother{points: points}
}

// SmoothIsobars replaces each isobar with points samples between its
// lowest and highest H2O. Isobars too short to fit are returned unchanged.
func (p *PolySmoother) SmoothIsobars(rows []IsobarRow) ([]IsobarRow, error) {
	out := make([]IsobarRow, 0, len(rows))
	for _, group := range groupBy(rows, func(r IsobarRow) float64 { return r.PressureBars }) {
		xs := make([]float64, len(group))
		ys := make([]float64, len(group))
		for i, r := range group {
			xs[i], ys[i] = r.H2OLiq, r.CO2Liq
		}
		coeffs, ok := fitPolynomial(xs, ys, 2)
		if !ok {
			out = append(out, group...)
			continue
		}
		lo, hi := slices.Min(xs), slices.Max(xs)
		for i := range p.points {
			h := lo + (hi-lo)*float64(i)/float64(p.points-1)
			out = append(out, IsobarRow{
				PressureBars: group[0].PressureBars,
				H2OLiq:       h,
				CO2Liq:       max(evalPolynomial(coeffs, h), 0),
			})
		}
	}
	return out, nil
}

// SmoothIsopleths replaces each isopleth with points samples from the origin
// to its highest pressure, fitting H2O and CO2 proportional to pressure.
func (p *PolySmoother) SmoothIsopleths(rows []IsoplethRow) ([]IsoplethRow, error) {
	out := make([]IsoplethRow, 0, len(rows))
	for _, group := range groupBy(rows, func(r IsoplethRow) float64 { return r.XH2OFluid }) {
		ps := make([]float64, len(group))
		h2o := make([]float64, len(group))
		co2 := make([]float64, len(group))
		for i, r := range group {
			ps[i], h2o[i], co2[i] = r.PressureBars, r.H2OLiq, r.CO2Liq
		}
		kh, okh := fitThroughOrigin(ps, h2o)
		kc, okc := fitThroughOrigin(ps, co2)
		if !okh || !okc {
			out = append(out, group...)
			continue
		}
		top := slices.Max(ps)
		for i := range p.points {
			pr := top * float64(i) / float64(p.points-1)
			out = append(out, IsoplethRow{
				XH2OFluid:    group[0].XH2OFluid,
				PressureBars: pr,
				H2OLiq:       kh * pr,
				CO2Liq:       kc * pr,
			})
		}
	}
	return out, nil
}

// groupBy splits rows into runs sharing a key, in order of first appearance.
func groupBy[T any](rows []T, key func(T) float64) [][]T {
	var keys []float64
	groups := make(map[float64][]T)
	for _, r := range rows {
		k := key(r)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}
	out := make([][]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, groups[k])
	}
	return out
}

// fitThroughOrigin returns k minimizing sum (y - k*x)^2.
func fitThroughOrigin(xs, ys []float64) (float64, bool) {
	var sxy, sxx float64
	for i := range xs {
		sxy += xs[i] * ys[i]
		sxx += xs[i] * xs[i]
	}
	if sxx == 0 {
		return 0, false
	}
	return sxy / sxx, true
}

// fitPolynomial returns least-squares coefficients c0..cd of y = sum c_i x^i.
// The degree drops when there are too few distinct x values.
func fitPolynomial(xs, ys []float64, degree int) ([]float64, bool) {
	distinct := len(slices.Compact(slices.Sorted(slices.Values(xs))))
	degree = min(degree, distinct-1)
	if degree < 1 {
		return nil, false
	}

	n := degree + 1
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n+1)
	}
	for k := range xs {
		pow := make([]float64, 2*n-1)
		pow[0] = 1
		for j := 1; j < len(pow); j++ {
			pow[j] = pow[j-1] * xs[k]
		}
		for i := range n {
			for j := range n {
				a[i][j] += pow[i+j]
			}
			a[i][n] += pow[i] * ys[k]
		}
	}

	coeffs, err := solveAugmented(a)
	if err != nil {
		return fitPolynomial(xs, ys, degree-1)
	}
	return coeffs, true
}

// solveAugmented solves an n x (n+1) augmented system by Gaussian elimination
// with partial pivoting.
func solveAugmented(a [][]float64) ([]float64, error) {
	n := len(a)
	for col := range n {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errSingular
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := a[r][n]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}

func evalPolynomial(coeffs []float64, x float64) float64 {
	var y float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = y*x + coeffs[i]
	}
	return y
}
