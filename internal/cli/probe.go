package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aescanero/example-app/internal/readiness"
)

func newProbeCmd() *cobra.Command {
	var (
		url      string
		timeout  time.Duration
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Wait until a URL answers with a 2xx status",
		Long: "Poll a readiness URL until it answers with a 2xx status or the timeout passes. " +
			"Exits non-zero on timeout. Intended for container health checks in images without curl.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checker, err := readiness.NewHTTPChecker(url, timeout, interval)
			if err != nil {
				return err
			}

			if err := checker.Check(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ready: %s\n", url)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://127.0.0.1:5000/health", "URL to poll")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Give up after this long")
	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "Delay between attempts")

	return cmd
}
