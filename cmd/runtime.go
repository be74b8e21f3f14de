package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/deploymenttheory/go-dexscan/internal/config"
	"github.com/deploymenttheory/go-dexscan/internal/logging"
	"github.com/deploymenttheory/go-dexscan/internal/scanner"
	"github.com/deploymenttheory/go-dexscan/internal/types"
	"github.com/deploymenttheory/go-dexscan/pkg/app"
	"github.com/deploymenttheory/go-dexscan/pkg/services"
)

// deviceOptions select the device and application being inspected
type deviceOptions struct {
	sourceDir string
	dataDir   string
}

// addDeviceFlags registers the flags shared by commands that resolve an application
func addDeviceFlags(flags *pflag.FlagSet, opts *deviceOptions) {
	flags.String("device-root", "", "root of the device image (contains data/app and data/data)")
	flags.String("build-prop", "", "build.prop file supplying runtime properties")
	flags.StringToString("prop", nil, "runtime property override key=value (repeatable)")
	flags.StringVar(&opts.sourceDir, "source-dir", "", "primary container path, bypassing the device layout")
	flags.StringVar(&opts.dataDir, "data-dir", "", "private data directory used with --source-dir")
}

// runtime is what every command needs to hand a request to the application layer
type runtime struct {
	ctx     *app.Context
	factory *services.ServiceFactory
	cfg     *config.Config
}

// newRuntime loads configuration, builds the logger and wires the services
func newRuntime(cmd *cobra.Command, opts *rootOptions, configure func(*config.Config)) (*runtime, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: opts.configFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid configuration", err)
	}

	if !cmd.Flags().Changed("log-level") {
		switch {
		case opts.verbose:
			cfg.Log.Level = "debug"
		case opts.quiet:
			cfg.Log.Level = "error"
		}
	}
	if configure != nil {
		configure(cfg)
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	logger := logging.New(logCfg)

	ctx := app.NewContext()
	if c := cmd.Context(); c != nil {
		ctx.Context = c
	}
	ctx.OutputFormat = opts.outputFormat
	ctx.Verbose = opts.verbose
	ctx.Quiet = opts.quiet
	ctx.Out = cmd.OutOrStdout()
	ctx.Err = cmd.ErrOrStderr()
	ctx.Logger = logger

	factory := services.NewServiceFactory(cfg, services.WithLogger(logger))
	return &runtime{ctx: ctx, factory: factory, cfg: cfg}, nil
}

// applicationOverride registers identity at the explicit --source-dir location
func (d *deviceOptions) applicationOverride(identity string) func(*config.Config) {
	return func(cfg *config.Config) {
		if d.sourceDir == "" {
			return
		}
		cfg.Applications = append(cfg.Applications, types.ApplicationInfo{
			PackageName: identity,
			SourceDir:   d.sourceDir,
			DataDir:     d.dataDir,
		})
	}
}

// strategyOverride applies --concurrent when it was given explicitly
func strategyOverride(cmd *cobra.Command, concurrent bool) func(*config.Config) {
	return func(cfg *config.Config) {
		if !cmd.Flags().Changed("concurrent") {
			return
		}
		if concurrent {
			cfg.Scan.Strategy = scanner.Concurrent.String()
		} else {
			cfg.Scan.Strategy = scanner.Sequential.String()
		}
	}
}

// chain combines configuration adjustments
func chain(fns ...func(*config.Config)) func(*config.Config) {
	return func(cfg *config.Config) {
		for _, fn := range fns {
			fn(cfg)
		}
	}
}
