package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-dexscan/pkg/app/scan"
)

func newContainersCommand(root *rootOptions) *cobra.Command {
	var device deviceOptions

	cmd := &cobra.Command{
		Use:   "containers <package>",
		Short: "Show the class containers an application resolves to",
		Long: `Print the ordered container paths an installed application would be scanned
from, and whether the runtime loads secondary containers natively.

A missing extracted secondary container is reported as an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, root, device.applicationOverride(args[0]))
			if err != nil {
				return err
			}

			response, err := scan.HandleResolve(rt.ctx, rt.factory, &scan.ResolveRequest{Identity: args[0]})
			if err != nil {
				return err
			}
			return scan.FormatResolveOutput(rt.ctx.Out, response, rt.ctx.OutputFormat)
		},
	}

	addDeviceFlags(cmd.Flags(), &device)

	return cmd
}
