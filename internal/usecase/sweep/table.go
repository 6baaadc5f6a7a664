package sweep

// IsobarRow is one point on an isobar.
type IsobarRow struct {
	PressureBars float64 `json:"Pressure" parquet:"pressure"`
	H2OLiq       float64 `json:"H2O_liq" parquet:"h2o_liq"`
	CO2Liq       float64 `json:"CO2_liq" parquet:"co2_liq"`
}

// IsoplethRow is one point on an isopleth of constant fluid composition.
type IsoplethRow struct {
	XH2OFluid    float64 `json:"XH2O_fl" parquet:"xh2o_fl"`
	PressureBars float64 `json:"Pressure" parquet:"pressure"`
	H2OLiq       float64 `json:"H2O_liq" parquet:"h2o_liq"`
	CO2Liq       float64 `json:"CO2_liq" parquet:"co2_liq"`
}

// DegassingRow is one pressure step of a degassing path.
type DegassingRow struct {
	PressureBars      float64 `json:"Pressure_bars" parquet:"pressure_bars"`
	H2OLiq            float64 `json:"H2O_liq" parquet:"h2o_liq"`
	CO2Liq            float64 `json:"CO2_liq" parquet:"co2_liq"`
	XH2OFluid         float64 `json:"XH2O_fl" parquet:"xh2o_fl"`
	XCO2Fluid         float64 `json:"XCO2_fl" parquet:"xco2_fl"`
	FluidProportionWt float64 `json:"FluidProportion_wt" parquet:"fluid_proportion_wt"`
}
