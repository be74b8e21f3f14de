package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-dexscan/pkg/app"
	"github.com/deploymenttheory/go-dexscan/pkg/app/scan"
)

// errAllContainersFailed is returned when no container of the application could be read
var errAllContainersFailed = errors.New("no container could be read")

func newScanCommand(root *rootOptions) *cobra.Command {
	var (
		device     deviceOptions
		namespaces []string
		concurrent bool
		loaders    bool
	)

	cmd := &cobra.Command{
		Use:   "scan <package>",
		Short: "Find the classes an application defines under namespace prefixes",
		Long: `Resolve every class container of an installed application and list the
classes whose fully qualified name starts with one of the given namespaces.

Examples:
  # Find feature classes of an app on a mounted device image
  go-dexscan scan com.example.app --device-root /mnt/device --ns com.example.app.feature

  # Scan a legacy multidex install sequentially, forcing pre-ART behaviour
  go-dexscan scan com.example.app --device-root /mnt/device --ns com.example --concurrent=false --prop java.vm.version=1.6.0

  # Also report generated module event receiver loaders
  go-dexscan scan com.example.app --source-dir ./base.apk --ns com.example --loaders -o json`,

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, root, chain(
				device.applicationOverride(args[0]),
				strategyOverride(cmd, concurrent),
			))
			if err != nil {
				return err
			}

			response, err := scan.Handle(rt.ctx, rt.factory, &scan.Request{
				Identity:   args[0],
				Namespaces: namespaces,
				Loaders:    loaders,
			})
			if err != nil {
				return err
			}

			if rt.ctx.Verbose {
				rt.ctx.Log(scan.FormatSummary(response))
			}
			if err := scan.FormatOutput(rt.ctx.Out, response, rt.ctx.OutputFormat); err != nil {
				return err
			}
			if response.AllFailed {
				return app.NewError(app.ErrCodeContainerAccess, "scan incomplete", errAllContainersFailed)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&namespaces, "ns", nil, "namespace prefix to collect (repeatable, comma separated)")
	flags.BoolVar(&concurrent, "concurrent", true, "scan containers concurrently")
	flags.Int("workers", 0, "maximum concurrent container tasks (0 = one per CPU)")
	flags.BoolVar(&loaders, "loaders", false, "also list generated receiver loader classes")
	addDeviceFlags(flags, &device)

	return cmd
}
