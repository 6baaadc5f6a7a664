package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Runs the calculation API with run history, health and metrics
endpoints until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := loadServices(cmd.Context())
		if err != nil {
			return err
		}
		if svc.Serve == nil {
			return errors.New("http server not configured")
		}
		return svc.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
