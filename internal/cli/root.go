// Package cli wires the odyctl commands. Running odyctl without a
// subcommand performs the full environment setup.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/project-odysseus/odyctl/internal/logger"
)

var (
	flagProfile        string
	flagEnvFile        string
	flagComposeFile    string
	flagNonInteractive bool
	flagLogLevel       string
	flagPretty         bool
)

var rootCmd = &cobra.Command{
	Use:   "odyctl",
	Short: "Provision and run the Odysseus trading environment",
	Long: `odyctl bootstraps a local Odysseus deployment: it migrates the bot
configuration, validates credentials, registers local domains, issues
TLS certificates, provisions Docker resources and starts the stack.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd)
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagProfile, "profile", "p", envOr("ODYCTL_PROFILE", "basic"), "deployment profile (basic, development, full)")
	pf.StringVar(&flagEnvFile, "env-file", envOr("ODYCTL_ENV_FILE", ".env"), "path to the environment file")
	pf.StringVar(&flagComposeFile, "compose-file", envOr("ODYCTL_COMPOSE_FILE", "docker-compose.yml"), "path to the compose file")
	pf.BoolVar(&flagNonInteractive, "non-interactive", false, "never prompt, report problems and continue")
	pf.StringVar(&flagLogLevel, "log-level", envOr("ODYCTL_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	pf.BoolVar(&flagPretty, "pretty", isTerminal(), "human readable log output")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func isTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func newLogger() logger.Logger {
	return logger.New(flagLogLevel, flagPretty)
}
