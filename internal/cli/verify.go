package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the health of the running stack",
	Long: `Probes the HTTP endpoints, container states and datastores of the
selected profile and prints a health report. The command never changes
anything, it only observes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		report := d.verifier().Run(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), report.Render())
		if !report.AllHealthy() {
			return errors.New(report.Summary())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
