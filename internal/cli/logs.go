package cli

import (
	"github.com/spf13/cobra"
)

var flagLogsTail int

var logsCmd = &cobra.Command{
	Use:   "logs [service]",
	Short: "Follow the logs of one service or the whole stack",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		service := ""
		if len(args) == 1 {
			service = args[0]
		}
		return d.launch.Logs(cmd.Context(), service, flagLogsTail)
	},
}

func init() {
	logsCmd.Flags().IntVar(&flagLogsTail, "tail", 100, "number of lines to show from the end of the logs")
	rootCmd.AddCommand(logsCmd)
}
