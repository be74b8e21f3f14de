package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds the global output control flags
type rootOptions struct {
	verbose      bool
	quiet        bool
	outputFormat string
	configFile   string
}

// NewRootCommand builds the go-dexscan command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "go-dexscan",
		Short: "Discover the classes an Android application ships under given namespaces",
		Long: `go-dexscan locates every class container an Android application was
installed with (base.apk, its classesN.dex entries and, on runtimes without
native multidex support, the extracted secondary-dex zips) and lists the
classes defined under one or more namespace prefixes.

It works against a device image or data partition dump on any platform and
never loads or instantiates the discovered classes.

Commands:
  scan        Find classes under namespace prefixes
  containers  Show the containers an application resolves to
  classes     List every class in a single container`,
		Version:       "0.1.0-dev",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress output except errors")
	flags.StringVarP(&opts.outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	flags.StringVar(&opts.configFile, "config", "", "config file (YAML)")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(
		newScanCommand(opts),
		newContainersCommand(opts),
		newClassesCommand(opts),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
