package composition

import (
	"fmt"

	"github.com/kailas-cloud/magmavol/internal/domain"
)

// toMolOxides converts wt% oxides to oxide mole fractions summing to 1.
func toMolOxides(wt oxideValues) (Values, error) {
	mol := make(oxideValues, len(wt))
	wt.each(func(ox Oxide, v float64) {
		mol[ox] = v / species[ox].MolarMass
	})
	total := mol.sum(nil)
	if total <= 0 {
		return nil, fmt.Errorf("%w: composition total is zero", domain.ErrInvalidInput)
	}
	out := make(Values, len(mol))
	mol.each(func(ox Oxide, v float64) {
		out[string(ox)] = v / total
	})
	return out, nil
}

// cationMoles returns moles of each cation and total oxygen moles per 100 g of wt% input.
func cationMoles(wt oxideValues) (Values, float64) {
	cat := make(Values, len(wt))
	var oxygen float64
	wt.each(func(ox Oxide, v float64) {
		sp := species[ox]
		moles := v / sp.MolarMass
		cat[sp.Cation] = sp.Cations * moles
		oxygen += sp.Oxygens * moles
	})
	return cat, oxygen
}

// toMolCations converts wt% oxides to cation mole fractions summing to 1.
func toMolCations(wt oxideValues) (Values, error) {
	cat, _ := cationMoles(wt)
	total := cat.Sum()
	if total <= 0 {
		return nil, fmt.Errorf("%w: composition total is zero", domain.ErrInvalidInput)
	}
	for k, v := range cat {
		cat[k] = v / total
	}
	return cat, nil
}

// toMolSingleO builds the chemical formula on a one-oxygen basis. Not renormalized.
func toMolSingleO(wt oxideValues) (Values, error) {
	cat, oxygen := cationMoles(wt)
	if oxygen <= 0 {
		return nil, fmt.Errorf("%w: composition has no oxygen", domain.ErrInvalidInput)
	}
	for k, v := range cat {
		cat[k] = v / oxygen
	}
	return cat, nil
}

// fromMolOxides converts oxide mole amounts to wt% oxides normalized to 100.
func fromMolOxides(mol oxideValues) (oxideValues, error) {
	wt := make(oxideValues, len(mol))
	mol.each(func(ox Oxide, v float64) {
		wt[ox] = v * species[ox].MolarMass
	})
	return scaleTo(wt, 100)
}

// fromMolCations converts cation mole amounts (keyed by oxide) to wt% oxides normalized to 100.
func fromMolCations(cat oxideValues) (oxideValues, error) {
	wt := make(oxideValues, len(cat))
	cat.each(func(ox Oxide, v float64) {
		sp := species[ox]
		wt[ox] = v / sp.Cations * sp.MolarMass
	})
	return scaleTo(wt, 100)
}

func scaleTo(ov oxideValues, target float64) (oxideValues, error) {
	total := ov.sum(nil)
	if total <= 0 {
		return nil, fmt.Errorf("%w: composition total is zero", domain.ErrInvalidInput)
	}
	out := make(oxideValues, len(ov))
	ov.each(func(ox Oxide, v float64) {
		out[ox] = v / total * target
	})
	return out, nil
}
