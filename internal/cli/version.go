package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/project-odysseus/odyctl/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the odyctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
