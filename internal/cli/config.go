package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/project-odysseus/odyctl/internal/config"
)

var migrateConfigCmd = &cobra.Command{
	Use:   "migrate-config",
	Short: "Install the staged bot configuration",
	Long: `Backs up the active configuration, installs the staged file in its
place and validates the result. The backup path is printed so a bad
migration can be rolled back by hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		backup, err := d.migrator.Migrate()
		switch {
		case errors.Is(err, config.ErrStagedMissing):
			return fmt.Errorf("nothing to migrate: %s does not exist", stagedConfigPath)
		case errors.Is(err, config.ErrValidation):
			if backup != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "❌ migrated configuration is invalid, restore %s to roll back\n", backup)
			}
			return err
		case err != nil:
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ configuration migrated to %s\n", activeConfigPath)
		if backup != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "   previous version saved as %s\n", backup)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateConfigCmd)
}
