package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/magmavol/internal/usecase/sweep"
)

var (
	sweepTemperature float64
	sweepJSON        bool
	sweepParquetDir  string

	isobarPressures       []float64
	isobarIsopleths       []float64
	isobarSmoothIsobars   bool
	isobarSmoothIsopleths bool

	degasStartPressure float64
	degasFractionate   float64
	degasInitVapor     float64
	degasSteps         int
)

var isobarsCmd = &cobra.Command{
	Use:   "isobars [sample]",
	Short: "Calculate isobars and isopleths",
	Long: `Calculates dissolved H2O and CO2 along isobars (fluid XH2O 0, 0.25,
0.5, 0.75 and 1 at each pressure) and along the requested isopleths.`,
	Args: cobra.ExactArgs(1),
	RunE: runIsobars,
}

var degasCmd = &cobra.Command{
	Use:   "degas [sample]",
	Short: "Calculate a degassing path",
	Long: `Decompresses the sample from its saturation pressure (or a lower start
pressure) to 10 bars. --fractionate 0 is closed-system degassing, 1 removes
all exsolved fluid at every step.`,
	Args: cobra.ExactArgs(1),
	RunE: runDegas,
}

func init() {
	for _, c := range []*cobra.Command{isobarsCmd, degasCmd} {
		c.Flags().Float64VarP(&sweepTemperature, "temperature", "t", 0, "temperature in °C")
		c.Flags().BoolVar(&sweepJSON, "json", false, "output the tables as JSON")
		c.Flags().StringVar(&sweepParquetDir, "parquet", "", "also write the tables as parquet files into this directory")
		_ = c.MarkFlagRequired("temperature")
		rootCmd.AddCommand(c)
	}

	isobarsCmd.Flags().Float64SliceVarP(&isobarPressures, "pressures", "p", nil, "isobar pressures in bars")
	isobarsCmd.Flags().Float64SliceVar(&isobarIsopleths, "isopleths", nil, "isopleth fluid XH2O values")
	isobarsCmd.Flags().BoolVar(&isobarSmoothIsobars, "smooth-isobars", false, "fit smooth curves through the isobars")
	isobarsCmd.Flags().BoolVar(&isobarSmoothIsopleths, "smooth-isopleths", false, "fit smooth curves through the isopleths")
	_ = isobarsCmd.MarkFlagRequired("pressures")

	degasCmd.Flags().Float64Var(&degasStartPressure, "start-pressure", 0, "start pressure in bars (0 starts at saturation)")
	degasCmd.Flags().Float64Var(&degasFractionate, "fractionate", 0, "share of exsolved fluid removed per step")
	degasCmd.Flags().Float64Var(&degasInitVapor, "init-vapor", 0, "initial coexisting fluid in wt%")
	degasCmd.Flags().IntVar(&degasSteps, "steps", sweep.DefaultDegassingSteps, "number of pressure steps")
}

func runIsobars(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	comp, err := loadSample(args[0])
	if err != nil {
		return err
	}

	res, err := svc.Sweeps.IsobarsAndIsopleths(cmd.Context(), comp, sweep.IsobarRequest{
		TemperatureC:    sweepTemperature,
		PressuresBars:   isobarPressures,
		Isopleths:       isobarIsopleths,
		SmoothIsobars:   isobarSmoothIsobars,
		SmoothIsopleths: isobarSmoothIsopleths,
	})
	if err != nil {
		return fmt.Errorf("isobars: %w", err)
	}

	if sweepParquetDir != "" {
		if err := writeTable(cmd, sweepParquetDir, "isobars", res.Isobars); err != nil {
			return err
		}
		if len(res.Isopleths) > 0 {
			if err := writeTable(cmd, sweepParquetDir, "isopleths", res.Isopleths); err != nil {
				return err
			}
		}
	}

	if sweepJSON {
		return outputJSON(cmd, res)
	}

	cmd.Println("Isobars:")
	cmd.Printf("  %12s %12s %12s\n", "Pressure", "H2O_liq", "CO2_liq")
	for _, r := range res.Isobars {
		cmd.Printf("  %12s %12s %12s\n", num(r.PressureBars), num(r.H2OLiq), num(r.CO2Liq))
	}
	if len(res.Isopleths) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Isopleths:")
	cmd.Printf("  %12s %12s %12s %12s\n", "XH2O_fl", "Pressure", "H2O_liq", "CO2_liq")
	for _, r := range res.Isopleths {
		cmd.Printf("  %12s %12s %12s %12s\n", num(r.XH2OFluid), num(r.PressureBars), num(r.H2OLiq), num(r.CO2Liq))
	}
	return nil
}

func runDegas(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	comp, err := loadSample(args[0])
	if err != nil {
		return err
	}

	res, err := svc.Sweeps.DegassingPath(cmd.Context(), comp, sweep.DegassingRequest{
		TemperatureC:      sweepTemperature,
		StartPressureBars: degasStartPressure,
		FractionateVapor:  degasFractionate,
		InitVapor:         degasInitVapor,
		Steps:             degasSteps,
	})
	if err != nil {
		return fmt.Errorf("degassing path: %w", err)
	}

	if sweepParquetDir != "" {
		if err := writeTable(cmd, sweepParquetDir, "degassing", res.Rows); err != nil {
			return err
		}
	}

	if sweepJSON {
		return outputJSON(cmd, res)
	}

	cmd.Printf("Saturation pressure: %s bars, path starts at %s bars\n",
		num(res.SaturationPressureBars), num(res.StartPressureBars))
	cmd.Printf("  %12s %12s %12s %12s %12s %12s\n",
		"Pressure", "H2O_liq", "CO2_liq", "XH2O_fl", "XCO2_fl", "Fluid_wt")
	for _, r := range res.Rows {
		cmd.Printf("  %12s %12s %12s %12s %12s %12s\n",
			num(r.PressureBars), num(r.H2OLiq), num(r.CO2Liq),
			num(r.XH2OFluid), num(r.XCO2Fluid), num(r.FluidProportionWt))
	}
	return nil
}
