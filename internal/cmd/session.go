package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/johanforsgren/threadline/internal/provider/common"
)

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget every account and cached content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			if !yes && interactive(cmd) {
				ok, err := promptConfirm("Forget every stored account?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			if err := a.auth.LogoutEverything(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out of every account.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newSiteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "site",
		Short: "Show the instance the active account talks to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			site, err := a.auth.RefreshSite(cmd.Context())
			if err != nil {
				return err
			}

			st := a.auth.State()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Instance:  %s\n", st.ResolvedEndpoint())
			fmt.Fprintf(out, "Name:      %s\n", site.Name)
			fmt.Fprintf(out, "Version:   %s\n", site.Version)
			if site.MyUser != nil {
				fmt.Fprintf(out, "Signed in: %s\n", common.RemoteHandle(*site.MyUser))
				fmt.Fprintf(out, "Follows:   %d communities\n", len(site.Follows))
			} else {
				fmt.Fprintln(out, "Signed in: no")
			}
			fmt.Fprintf(out, "Phase:     %s\n", a.auth.Phase())
			return nil
		},
	}
}

func newInboxCommand(opts *rootOptions) *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List replies, mentions and private messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}

			// own messages are filtered using the site's user id
			if _, err := a.auth.RefreshSite(cmd.Context()); err != nil {
				return err
			}
			items, err := a.auth.Inbox(cmd.Context(), unread)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Inbox is empty.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tFROM\tWHEN\tTEXT")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					item.Kind,
					common.RemoteHandle(item.Creator),
					item.Published.Format("2006-01-02 15:04"),
					summarize(item.Content, 60),
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread items")
	return cmd
}

func newUserCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user <name[@instance]>",
		Short: "Show a profile and its recent posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			if strings.Contains(args[0], "@") {
				if _, _, err := common.ParseHandle(args[0]); err != nil {
					return err
				}
			}
			details, err := a.auth.Person(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", details.Person.DisplayName, common.RemoteHandle(details.Person))
			fmt.Fprintf(out, "%d posts, %d comments\n", len(details.Posts), len(details.Comments))
			for _, p := range details.Posts {
				fmt.Fprintf(out, "  - %s\n", summarize(p.Name, 70))
			}
			return nil
		},
	}
}

func summarize(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
