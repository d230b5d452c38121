// Package cli implements the modbank command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// rootOptions carries flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

// Execute runs the command tree and returns the first error.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "modbank",
		Short:        "Inspect and manage the plugin module bank",
		Long:         "modbank discovers plugin modules, maintains their descriptor cache\nand reports which modules provide which capabilities.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to configuration file")
	root.AddCommand(newListCmd(opts), newProbeCmd(opts), newCacheCmd(opts))
	return root
}
