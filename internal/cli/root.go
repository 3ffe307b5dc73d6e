package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command; it runs serve when no subcommand is given
func NewRootCmd(version, buildTime string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "example-app",
		Short: "example-app serves a minimal probe-friendly HTTP API",
		Long: "example-app serves a minimal HTTP API with liveness and readiness probes, " +
			"Prometheus metrics and a live request feed, plus the operator tooling used to deploy it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version, buildTime)
		},
	}

	cmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)

	cmd.AddCommand(newServeCmd(version, buildTime))
	cmd.AddCommand(newProbeCmd())
	cmd.AddCommand(newPreflightCmd())
	cmd.AddCommand(newSetImageCmd())

	return cmd
}

// Execute runs the provided root command
func Execute(cmd *cobra.Command) error {
	if err := cmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}
	return nil
}
