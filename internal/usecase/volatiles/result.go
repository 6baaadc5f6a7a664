package volatiles

// SaturationResult is the outcome of a saturation-pressure search.
// All numeric fields are NaN when no saturation pressure was found.
type SaturationResult struct {
	TemperatureC      float64
	PressureBars      float64
	FluidMass         float64
	FluidProportionWt float64
	XH2OFluid         float64
	XCO2Fluid         float64
	Iterations        int
	Warning           string
}

// DissolvedResult holds the melt volatile contents at fluid saturation.
type DissolvedResult struct {
	TemperatureC      float64
	PressureBars      float64
	H2OLiq            float64
	CO2Liq            float64
	XH2OFluid         float64
	XCO2Fluid         float64
	FluidMass         float64
	FluidProportionWt float64
	Iterations        int
}

// FluidComposition is the fluid in equilibrium with a sample.
// Shortcut reports that no solver query was needed; FluidMass and
// FluidProportionWt are then NaN unless the sample holds no volatiles at all.
type FluidComposition struct {
	H2O               float64
	CO2               float64
	FluidMass         float64
	FluidProportionWt float64
	Shortcut          bool
}
