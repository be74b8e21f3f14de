package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-dexscan/pkg/app/scan"
)

func newClassesCommand(root *rootOptions) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "classes <container-path>",
		Short: "List every class defined in a single container",
		Long: `Enumerate one container directly: a .dex file, an APK, or an extracted
secondary-dex zip (paths ending in .zip). Classes are listed in entry order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, root, nil)
			if err != nil {
				return err
			}

			response, err := scan.HandleClasses(rt.ctx, rt.factory, &scan.ClassesRequest{Path: args[0], Prefix: prefix})
			if err != nil {
				return err
			}
			return scan.FormatClassesOutput(rt.ctx.Out, response, rt.ctx.OutputFormat)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only list classes starting with prefix")

	return cmd
}
