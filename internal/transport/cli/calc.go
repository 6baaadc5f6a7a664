package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	calcTemperature float64
	calcPressure    float64
	calcXFluid      float64
	calcH2OGuess    float64
	calcJSON        bool
)

var satpCmd = &cobra.Command{
	Use:   "satp [sample]",
	Short: "Calculate the volatile saturation pressure",
	Long: `Finds the highest pressure at which the sample exsolves an H2O-CO2 fluid,
stepping down from 20 kbar in 1000, 100 and 10 bar steps.`,
	Args: cobra.ExactArgs(1),
	RunE: runSatp,
}

var dissolveCmd = &cobra.Command{
	Use:   "dissolve [sample]",
	Short: "Calculate dissolved H2O and CO2 at fluid saturation",
	Long: `Finds the H2O and CO2 the melt dissolves at the given pressure when it
coexists with a fluid of the given H2O mole fraction.`,
	Args: cobra.ExactArgs(1),
	RunE: runDissolve,
}

var fluidCmd = &cobra.Command{
	Use:   "fluid [sample]",
	Short: "Calculate the equilibrium fluid composition",
	Args:  cobra.ExactArgs(1),
	RunE:  runFluid,
}

func init() {
	for _, c := range []*cobra.Command{satpCmd, dissolveCmd, fluidCmd} {
		c.Flags().Float64VarP(&calcTemperature, "temperature", "t", 0, "temperature in °C")
		c.Flags().BoolVar(&calcJSON, "json", false, "output the result as JSON")
		_ = c.MarkFlagRequired("temperature")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{dissolveCmd, fluidCmd} {
		c.Flags().Float64VarP(&calcPressure, "pressure", "p", 0, "pressure in bars")
		_ = c.MarkFlagRequired("pressure")
	}
	dissolveCmd.Flags().Float64VarP(&calcXFluid, "x-fluid", "x", 1, "H2O mole fraction of the fluid")
	dissolveCmd.Flags().Float64Var(&calcH2OGuess, "h2o-guess", 0, "starting dissolved H2O in wt%")
}

type saturationOutput struct {
	TemperatureC      float64  `json:"temperature_c"`
	PressureBars      *float64 `json:"pressure_bars"`
	FluidMass         *float64 `json:"fluid_mass"`
	FluidProportionWt *float64 `json:"fluid_proportion_wt"`
	XH2OFluid         *float64 `json:"xh2o_fluid"`
	XCO2Fluid         *float64 `json:"xco2_fluid"`
	Iterations        int      `json:"iterations"`
}

func runSatp(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	comp, err := loadSample(args[0])
	if err != nil {
		return err
	}

	res, err := svc.Volatiles.SaturationPressure(cmd.Context(), comp, calcTemperature)
	if res.Warning != "" {
		cmd.PrintErrln("Warning:", res.Warning)
	}
	if err != nil {
		return fmt.Errorf("saturation pressure: %w", err)
	}

	if calcJSON {
		return outputJSON(cmd, saturationOutput{
			TemperatureC:      res.TemperatureC,
			PressureBars:      nullable(res.PressureBars),
			FluidMass:         nullable(res.FluidMass),
			FluidProportionWt: nullable(res.FluidProportionWt),
			XH2OFluid:         nullable(res.XH2OFluid),
			XCO2Fluid:         nullable(res.XCO2Fluid),
			Iterations:        res.Iterations,
		})
	}

	cmd.Printf("Saturation pressure:  %s bars\n", num(res.PressureBars))
	cmd.Printf("Temperature:          %s °C\n", num(res.TemperatureC))
	cmd.Printf("XH2O fluid:           %s\n", num(res.XH2OFluid))
	cmd.Printf("XCO2 fluid:           %s\n", num(res.XCO2Fluid))
	cmd.Printf("Fluid proportion:     %s wt%%\n", num(res.FluidProportionWt))
	cmd.Printf("Solver queries:       %d\n", res.Iterations)
	return nil
}

type dissolvedOutput struct {
	TemperatureC      float64  `json:"temperature_c"`
	PressureBars      float64  `json:"pressure_bars"`
	H2OLiq            *float64 `json:"h2o_liq"`
	CO2Liq            *float64 `json:"co2_liq"`
	XH2OFluid         *float64 `json:"xh2o_fluid"`
	XCO2Fluid         *float64 `json:"xco2_fluid"`
	FluidProportionWt *float64 `json:"fluid_proportion_wt"`
	Iterations        int      `json:"iterations"`
}

func runDissolve(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	comp, err := loadSample(args[0])
	if err != nil {
		return err
	}

	res, err := svc.Volatiles.DissolvedVolatiles(
		cmd.Context(), comp, calcTemperature, calcPressure, calcXFluid, calcH2OGuess,
	)
	if err != nil {
		return fmt.Errorf("dissolved volatiles: %w", err)
	}

	if calcJSON {
		return outputJSON(cmd, dissolvedOutput{
			TemperatureC:      res.TemperatureC,
			PressureBars:      res.PressureBars,
			H2OLiq:            nullable(res.H2OLiq),
			CO2Liq:            nullable(res.CO2Liq),
			XH2OFluid:         nullable(res.XH2OFluid),
			XCO2Fluid:         nullable(res.XCO2Fluid),
			FluidProportionWt: nullable(res.FluidProportionWt),
			Iterations:        res.Iterations,
		})
	}

	cmd.Printf("H2O dissolved:        %s wt%%\n", num(res.H2OLiq))
	cmd.Printf("CO2 dissolved:        %s wt%%\n", num(res.CO2Liq))
	cmd.Printf("XH2O fluid:           %s\n", num(res.XH2OFluid))
	cmd.Printf("Pressure:             %s bars\n", num(res.PressureBars))
	cmd.Printf("Solver queries:       %d\n", res.Iterations)
	return nil
}

type fluidOutput struct {
	H2O               *float64 `json:"h2o"`
	CO2               *float64 `json:"co2"`
	FluidMass         *float64 `json:"fluid_mass"`
	FluidProportionWt *float64 `json:"fluid_proportion_wt"`
	Shortcut          bool     `json:"shortcut"`
}

func runFluid(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	comp, err := loadSample(args[0])
	if err != nil {
		return err
	}

	res, err := svc.Volatiles.EquilibriumFluidComp(cmd.Context(), comp, calcTemperature, calcPressure)
	if err != nil {
		return fmt.Errorf("fluid composition: %w", err)
	}

	if calcJSON {
		return outputJSON(cmd, fluidOutput{
			H2O:               nullable(res.H2O),
			CO2:               nullable(res.CO2),
			FluidMass:         nullable(res.FluidMass),
			FluidProportionWt: nullable(res.FluidProportionWt),
			Shortcut:          res.Shortcut,
		})
	}

	cmd.Printf("XH2O fluid:           %s\n", num(res.H2O))
	cmd.Printf("XCO2 fluid:           %s\n", num(res.CO2))
	if !res.Shortcut {
		cmd.Printf("Fluid proportion:     %s wt%%\n", num(res.FluidProportionWt))
	}
	return nil
}
