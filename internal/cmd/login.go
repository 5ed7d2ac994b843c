package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/johanforsgren/threadline/internal/auth"
	"github.com/johanforsgren/threadline/internal/domain"
	"github.com/johanforsgren/threadline/internal/oauth"
)

const callbackTimeout = 5 * time.Minute

type oauthFlags struct {
	clientID     string
	clientSecret string
	redirectURI  string
	agent        string
}

func (f *oauthFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.clientID, "client-id", "", "OAuth client id (default from config)")
	cmd.Flags().StringVar(&f.clientSecret, "client-secret", "", "OAuth client secret (default from config)")
	cmd.Flags().StringVar(&f.redirectURI, "redirect-uri", "", "registered redirect URI (default from config)")
	cmd.Flags().StringVar(&f.agent, "user-agent", "", "User-Agent sent to the provider (default from config)")
}

func (f *oauthFlags) request(a *app) auth.LoginRequest {
	return auth.LoginRequest{
		ClientID:     firstNonEmpty(f.clientID, a.cfg.OAuth.ClientID),
		ClientSecret: firstNonEmpty(f.clientSecret, a.cfg.OAuth.ClientSecret),
		RedirectURI:  firstNonEmpty(f.redirectURI, a.cfg.OAuth.RedirectURI),
		Agent:        firstNonEmpty(f.agent, a.cfg.OAuth.UserAgent),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func newLoginCommand(opts *rootOptions) *cobra.Command {
	login := &cobra.Command{
		Use:   "login",
		Short: "Add an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	login.AddCommand(
		newLoginBeginCommand(opts),
		newLoginCompleteCommand(opts),
		newLoginRedditCommand(opts),
		newLoginLemmyCommand(opts),
	)
	return login
}

func newLoginBeginCommand(opts *rootOptions) *cobra.Command {
	flags := &oauthFlags{}
	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Start an OAuth login and print the authorization URL",
		Long: `Start an OAuth login and print the authorization URL.

Open the URL, approve access and pass the code from the redirect to
"threadline login complete". Starting another login replaces this one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			url, err := a.auth.BeginLogin(cmd.Context(), flags.request(a))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newLoginCompleteCommand(opts *rootOptions) *cobra.Command {
	var code, state string
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Finish a pending OAuth login with the code from the redirect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			cred, err := a.auth.CompleteLogin(cmd.Context(), code, state)
			if err != nil {
				return describeLoginError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", cred.Handle())
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the redirect")
	cmd.Flags().StringVar(&state, "state", "", "state value from the redirect")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newLoginRedditCommand(opts *rootOptions) *cobra.Command {
	flags := &oauthFlags{}
	cmd := &cobra.Command{
		Use:   "reddit",
		Short: "Log in through the browser, receiving the redirect locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			req := flags.request(a)

			server, err := oauth.NewCallbackServer(req.RedirectURI)
			if err != nil {
				return err
			}
			server.Start()
			defer server.Shutdown(context.Background())

			url, err := a.auth.BeginLogin(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this URL to authorize threadline:\n\n  %s\n\nWaiting for the redirect on %s ...\n", url, server.URL())

			ctx, cancel := context.WithTimeout(cmd.Context(), callbackTimeout)
			defer cancel()
			res, err := server.Wait(ctx)
			if err != nil {
				return err
			}

			cred, err := a.auth.CompleteLogin(cmd.Context(), res.Code, res.State)
			if err != nil {
				return describeLoginError(err)
			}
			fmt.Fprintf(out, "Logged in as %s\n", cred.Handle())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newLoginLemmyCommand(opts *rootOptions) *cobra.Command {
	var req auth.FederatedLogin
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "lemmy",
		Short: "Log in to an instance with username and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.mustApp()
			if err != nil {
				return err
			}
			if req.Instance == "" {
				req.Instance = a.cfg.Instance
			}
			if passwordStdin {
				pw, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Password = pw
			}
			if err := fillMissing(cmd,
				promptField{title: "Username or email", value: &req.Username},
				promptField{title: "Password", secret: true, value: &req.Password},
			); err != nil {
				return err
			}

			cred, err := a.auth.LoginFederated(cmd.Context(), req)
			if errors.Is(err, domain.ErrNeedsSecondFactor) && req.TOTP == "" && interactive(cmd) {
				if req.TOTP, err = promptString("Two-factor code", "123456", false); err != nil {
					return err
				}
				cred, err = a.auth.LoginFederated(cmd.Context(), req)
			}
			if err != nil {
				return describeLoginError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", cred.Handle())
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Instance, "instance", "", "instance to log in to (default from config)")
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username or email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().StringVar(&req.TOTP, "totp", "", "two-factor code")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func describeLoginError(err error) error {
	if errors.Is(err, domain.ErrNeedsSecondFactor) {
		return fmt.Errorf("%w (retry with --totp)", err)
	}
	return err
}
