package cmd

import (
	"github.com/spf13/cobra"

	"github.com/johanforsgren/threadline/internal/ui"
)

func newTUICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Manage accounts in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			return ui.Run(cmd.Context(), a.auth, a.cfg.Instance)
		},
	}
}
