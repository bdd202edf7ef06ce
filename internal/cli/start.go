package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/project-odysseus/odyctl/internal/launcher"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the stack for the selected profile",
	Long: `Starts the services of the selected profile with docker compose.
Infrastructure must already be provisioned, run "odyctl setup" for a
first time install.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		if err := ensureFileExists(flagComposeFile, "run odyctl from the deployment directory"); err != nil {
			return err
		}
		if err := launcher.CheckCompose(cmd.Context(), d.runner); err != nil {
			return err
		}

		res, err := d.launch.Start(cmd.Context(), d.profile)
		if err != nil {
			return err
		}
		if res.State == launcher.StateStartFailed {
			if res.StatusTable != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.StatusTable)
			}
			return fmt.Errorf("failed to start services: %s", res.Err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ started %d service(s) with profile %q\n", len(res.Services), d.profile)
		return nil
	},
}

var monitoringCmd = &cobra.Command{
	Use:   "monitoring",
	Short: "Start the monitoring services",
	Long:  `Starts Prometheus and Grafana alongside the running stack.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		if err := d.launch.StartFeature(cmd.Context(), "monitoring"); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ monitoring services started")
		fmt.Fprintln(cmd.OutOrStdout(), "   Grafana:    https://grafana.odysseus.local")
		fmt.Fprintln(cmd.OutOrStdout(), "   Prometheus: https://prometheus.odysseus.local")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd, monitoringCmd)
}
