package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Manage the odysseus.local host entries",
}

var domainsSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the local domains in the hosts file",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		if err := d.hosts.CheckWritable(); err != nil {
			return err
		}
		if err := d.hosts.Setup(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ local domains registered")
		return nil
	},
}

var domainsRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the managed host entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		if err := d.hosts.CheckWritable(); err != nil {
			return err
		}
		if err := d.hosts.Remove(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ local domains removed")
		return nil
	},
}

var domainsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the hosts file is writable",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		if err := d.hosts.CheckWritable(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ hosts file is writable")
		return nil
	},
}

var domainsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Resolve every managed domain and report the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		broken := 0
		for _, st := range d.hosts.Verify(cmd.Context()) {
			if st.Resolved {
				fmt.Fprintf(cmd.OutOrStdout(), "✅ %s -> 127.0.0.1\n", st.Domain)
				continue
			}
			broken++
			fmt.Fprintf(cmd.OutOrStdout(), "❌ %s does not resolve locally\n", st.Domain)
		}
		if broken > 0 {
			return fmt.Errorf("%d domain(s) do not resolve, run: odyctl domains setup", broken)
		}
		return nil
	},
}

// setupDomainsCmd is the historical spelling, kept as a shorthand.
var setupDomainsCmd = &cobra.Command{
	Use:   "setup-domains",
	Short: "Register the local domains in the hosts file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return domainsSetupCmd.RunE(cmd, args)
	},
}

func init() {
	domainsCmd.AddCommand(domainsSetupCmd, domainsRemoveCmd, domainsCheckCmd, domainsVerifyCmd)
	rootCmd.AddCommand(domainsCmd, setupDomainsCmd)
}
