package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/project-odysseus/odyctl/internal/orchestrator"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the full environment bootstrap",
	Long: `Runs every bootstrap stage in order: prerequisites, configuration
migration, credential validation, local domains, TLS certificates,
proxy config, Docker resources, service startup and health checks.
A fatal stage halts the run; warnings are collected and reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.log.Sync() //nolint:errcheck

	var prompter orchestrator.Prompter
	if !flagNonInteractive {
		prompter = orchestrator.NewStdioPrompter(os.Stdin, cmd.OutOrStdout())
	}

	setup := orchestrator.NewSetup(orchestrator.Options{
		Profile:  d.profile,
		Prompter: prompter,
		EnvPath:  flagEnvFile,
		Migrator: d.migrator,
		Hosts:    d.hosts,
		Certs:    d.certs,
		Proxy:    d.proxy,
		Infra:    d.infra,
		Launcher: d.launch,
		Verifier: d.verifier(),
		Runner:   d.runner,
	}, cmd.OutOrStdout(), d.log)

	if !setup.Run(cmd.Context()) {
		return errors.New("setup did not complete")
	}
	return nil
}
