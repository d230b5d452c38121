package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProbeCmd(opts *rootOptions) *cobra.Command {
	var mapWinner bool
	cmd := &cobra.Command{
		Use:   "probe <capability>",
		Short: "Check whether any module provides a capability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, release, err := openBank(opts, false)
			if err != nil {
				return err
			}
			defer release()

			capability := args[0]
			candidates := b.ListByCapability(capability)
			if len(candidates) == 0 {
				return fmt.Errorf("no module provides %q", capability)
			}

			winner := candidates[0]
			if mapWinner {
				if err := b.Map(winner); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (score %d)\n", winner.Name(), winner.Score())
			return nil
		},
	}
	cmd.Flags().BoolVar(&mapWinner, "map", false, "fully load the winning module")
	return cmd
}
