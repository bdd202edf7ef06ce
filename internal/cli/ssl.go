package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sslCmd = &cobra.Command{
	Use:   "ssl",
	Short: "Provision the local TLS certificates",
	Long: `Creates the certificate authority and server certificate when they
are missing, installs the pair the reverse proxy expects and verifies
the chain. Existing material is reused unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.log.Sync() //nolint:errcheck

		createdCA, err := d.certs.EnsureAuthority()
		if err != nil {
			return err
		}
		createdLeaf, err := d.certs.EnsureLeaf()
		if err != nil {
			return err
		}
		if err := d.certs.Install(); err != nil {
			return err
		}
		if err := d.certs.VerifyChain(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if createdCA {
			fmt.Fprintln(out, "✅ certificate authority created")
		}
		if createdLeaf {
			fmt.Fprintln(out, "✅ server certificate issued")
		}
		if !createdCA && !createdLeaf {
			fmt.Fprintln(out, "✅ certificates already in place")
		}
		fmt.Fprintf(out, "   trust %s/ca.crt in your browser to avoid warnings\n", certsDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sslCmd)
}
