package cli

import (
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Dump the trading database to a file",
	Long: `Runs pg_dump inside the postgres container and writes a timestamped
dump under backups/. Use "odyctl backup list" to see existing dumps.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		path, err := d.backups.Create(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ backup written to %s\n", path)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the existing database dumps",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		infos, err := d.backups.List()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no backups found, create one with: odyctl backup")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"BACKUP", "SIZE", "CREATED"})
		for _, info := range infos {
			t.AppendRow(table.Row{
				info.Name,
				fmt.Sprintf("%.1f KiB", float64(info.Size)/1024),
				info.ModTime.Format("2006-01-02 15:04:05"),
			})
		}
		t.Render()
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore the trading database from a dump",
	Long: `Feeds a dump produced by "odyctl backup" to psql inside the postgres
container. The dump replays on top of the current data, restore into a
fresh database for an exact copy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		path := args[0]
		if filepath.Dir(path) == "." {
			// bare file names are resolved against the backup directory
			path = filepath.Join(backupsDir, path)
		}
		if err := ensureFileExists(path, "list dumps with: odyctl backup list"); err != nil {
			return err
		}
		if err := d.backups.Restore(cmd.Context(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ database restored from %s\n", path)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd)
	rootCmd.AddCommand(backupCmd, restoreCmd)
}
