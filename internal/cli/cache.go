package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the plugin descriptor cache",
	}
	cmd.AddCommand(newCacheResetCmd(opts))
	return cmd
}

func newCacheResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Rescan all plugins and rewrite the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, release, err := openBank(opts, true)
			if err != nil {
				return err
			}
			defer release()

			fmt.Fprintf(cmd.OutOrStdout(), "cache rebuilt: %d modules\n", b.Count())
			return nil
		},
	}
}
