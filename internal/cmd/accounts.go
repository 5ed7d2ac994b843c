package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/token"
)

func newAccountsCommand(opts *rootOptions) *cobra.Command {
	accounts := &cobra.Command{
		Use:   "accounts",
		Short: "List, switch and remove stored accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts, most recently added first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}

			st := a.auth.State()
			out := cmd.OutOrStdout()
			if st.Accounts == nil {
				fmt.Fprintln(out, "No accounts.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tHANDLE\tKIND\tINSTANCE")
			for _, account := range st.Accounts.Accounts {
				marker := ""
				if account.Handle() == st.Accounts.ActiveHandle {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, account.Handle(), account.Kind(), instanceOf(account))
			}
			return w.Flush()
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch <handle>",
		Short: "Make an account the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			if err := a.auth.SwitchActive(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", args[0])
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove <handle>",
		Aliases: []string{"rm"},
		Short:   "Forget an account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			if err := a.auth.RemoveAccount(cmd.Context(), args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %s\n", args[0])
			if active := a.auth.State().ActiveHandle(); active != "" {
				fmt.Fprintf(out, "Active account: %s\n", active)
			}
			return nil
		},
	}

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Renew the access token of the active Reddit account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			if err := a.auth.RefreshActive(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed token for %s\n", a.auth.State().ActiveHandle())
			return nil
		},
	}

	accounts.AddCommand(list, switchCmd, remove, refresh)
	return accounts
}

func instanceOf(c domain.Credential) string {
	if c.Kind() != domain.CredentialFederated {
		return "reddit.com"
	}
	payload, err := token.Decode(c.Token())
	if err != nil || payload.Issuer == "" {
		return "-"
	}
	return payload.Issuer
}
