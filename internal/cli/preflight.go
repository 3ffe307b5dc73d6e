package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aescanero/example-app/internal/preflight"
)

func newPreflightCmd() *cobra.Command {
	var (
		root    string
		execute bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check Bicep templates before an Azure deployment",
		Long: "Detect the azd project and Bicep templates under --root, check that az, azd and bicep " +
			"are installed and list the what-if commands that validate each template. " +
			"With --execute the commands are run. The Markdown report is written to --output and printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := preflight.Run(cmd.Context(), preflight.Options{
				Root:    root,
				Execute: execute,
			})
			if err != nil {
				return err
			}

			content, err := report.WriteFile(output)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Repository root")
	cmd.Flags().BoolVar(&execute, "execute", false, "Run the what-if commands (requires az)")
	cmd.Flags().StringVar(&output, "output", "preflight-report.md", "Report output path")

	return cmd
}
