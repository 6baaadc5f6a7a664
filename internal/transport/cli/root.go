// Package cli is the magmavol command line: one-off calculations against the
// configured solver, plus the HTTP server.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

// Services are what the commands run against.
type Services struct {
	Volatiles VolatilesService
	Sweeps    SweepService
	// Serve runs the HTTP API until ctx is cancelled.
	Serve func(ctx context.Context) error
}

var (
	services  *Services
	bootstrap func(ctx context.Context) (*Services, error)
)

var rootCmd = &cobra.Command{
	Use:   "magmavol",
	Short: "H2O-CO2 solubility calculations for silicate melts",
	Long: `magmavol searches a thermodynamic equilibrium solver for volatile
saturation: saturation pressures, dissolved H2O and CO2 at a given fluid
composition, isobars and isopleths, and degassing paths.

Samples are YAML or JSON files:

  composition: {SiO2: 50, Al2O3: 15, FeO: 8, MgO: 9, CaO: 11, H2O: 3, CO2: 0.5}
  basis: wtpt_oxides          # or mol_oxides, mol_cations
  normalization: standard     # optional`,
	SilenceUsage: true,
}

// SetBootstrap registers the function that builds services on first use.
// Commands that need no services (version) never call it.
func SetBootstrap(fn func(ctx context.Context) (*Services, error)) {
	bootstrap = fn
	services = nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx) //nolint:wrapcheck // cobra errors are user-facing
}

func loadServices(ctx context.Context) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}
	s, err := bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	services = s
	return services, nil
}
