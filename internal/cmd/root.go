package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	app        *app
}

// NewRootCommand builds the threadline command tree. The app is wired in
// PersistentPreRunE so that help and completion work without storage.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "threadline",
		Short: "Multi-account terminal client for federated link aggregators",
		Long: `threadline keeps several accounts signed in at once and switches between them.

Accounts come from an instance password login or from a Reddit OAuth
authorization. The active account's token is only ever sent to the
instance that issued it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app != nil {
				return nil
			}
			a, err := newApp(opts.configPath)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app == nil {
				return nil
			}
			err := opts.app.close()
			opts.app = nil
			return err
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $HOME/.threadline/config.yaml)")

	root.AddCommand(
		newAccountsCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newSiteCommand(opts),
		newInboxCommand(opts),
		newUserCommand(opts),
		newConfigCommand(opts),
		newTUICommand(opts),
	)
	return root
}

// ExecuteContext runs the command tree with ctx.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) mustApp() (*app, error) {
	if o.app == nil {
		return nil, fmt.Errorf("application not initialised")
	}
	return o.app, nil
}
