package cli

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dshills/modbank/internal/module"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

func newListCmd(opts *rootOptions) *cobra.Command {
	var capability string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered modules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, release, err := openBank(opts, false)
			if err != nil {
				return err
			}
			defer release()

			var mods []*module.Module
			if capability != "" {
				mods = b.ListByCapability(capability)
			} else {
				mods = b.ListAll()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render(
				formatRow("NAME", "CAPABILITY", "SCORE", "SOURCE", "STATE")))
			for _, m := range mods {
				fmt.Fprintln(out, formatRow(
					m.Name(),
					m.Capability(),
					fmt.Sprintf("%d", m.Score()),
					sourceOf(m),
					stateOf(m),
				))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&capability, "capability", "", "only modules providing this capability")
	return cmd
}

// formatRow pads plain cells before any styling so columns stay aligned.
func formatRow(name, capability, score, source, state string) string {
	return fmt.Sprintf("%-24s %-14s %6s  %-24s %s", name, capability, score, source, state)
}

func sourceOf(m *module.Module) string {
	if path := m.Filename(); path != "" {
		return filepath.Base(path)
	}
	return "builtin"
}

func stateOf(m *module.Module) string {
	switch {
	case !m.Mapped():
		return "cached"
	case !m.Unloadable():
		return "resident"
	default:
		return "mapped"
	}
}
