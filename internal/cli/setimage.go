package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	ktypes "sigs.k8s.io/kustomize/api/types"

	"github.com/aescanero/example-app/internal/kustomization"
)

func newSetImageCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set-image <name>[=<newName>][:<tag>|@<digest>]...",
		Short: "Pin image tags or digests in a kustomization file",
		Example: "  example-app set-image example-app:1.2.3\n" +
			"  example-app set-image --file deploy/kustomization.yaml example-app=ghcr.io/acme/example-app@sha256:abc",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images := make([]ktypes.Image, 0, len(args))
			for _, arg := range args {
				img, err := kustomization.ParseImageArg(arg)
				if err != nil {
					return err
				}
				images = append(images, img)
			}

			changed, err := kustomization.SetImagesInFile(file, images...)
			if err != nil {
				return err
			}

			if changed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", file)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s already up to date\n", file)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "kustomization.yaml", "Kustomization file to edit")

	return cmd
}
