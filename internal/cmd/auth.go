package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/nav"
	"github.com/felixgeelhaar/nexconsole/internal/tui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in with your email and password.

The returned token is written to the shared credentials file, so every running
console picks it up. Missing flags are prompted for when a terminal is attached.

Examples:
  nexconsole login --email eve.holt@reqres.in
  nexconsole login --email eve.holt@reqres.in --password cityslicka`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSignIn(cmd, false)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Long: `Register a new account and sign in with the returned token.

Examples:
  nexconsole register --email eve.holt@reqres.in --password pistol`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSignIn(cmd, true)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out everywhere",
	Long: `Remove the stored session token.

Every running console notices the change and returns to its login view.`,
	RunE: runLogout,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().String("email", "", "Email address")
		c.Flags().String("password", "", "Password (prompted for when omitted)")
	}

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runSignIn(cmd *cobra.Command, register bool) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	creds, err := readCredentials(cmd)
	if err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	sess, err := cctx.OpenSession()
	if err != nil {
		return err
	}
	navigator := nav.NewNavigator(sess, nil, cctx.Logger)
	defer navigator.Close()

	client := cctx.NewClient(nil)
	if register {
		_, err = navigator.Register(cmd.Context(), client, creds)
	} else {
		_, err = navigator.Login(cmd.Context(), client, creds)
	}
	if err != nil {
		if !register {
			return fmt.Errorf("%s: %w", api.LoginMessage(err), err)
		}
		return err
	}

	return cctx.Output(cmd.OutOrStdout()).Format(signInResult{Email: creds.Email, Authenticated: true})
}

type signInResult struct {
	Email         string `json:"email" yaml:"email"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
}

func (r signInResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ Signed in as %s\n", r.Email)
	return err
}

// readCredentials takes email and password from flags, prompting for the
// missing ones when a terminal is attached.
func readCredentials(cmd *cobra.Command) (api.Credentials, error) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	creds := api.Credentials{Email: strings.TrimSpace(email), Password: password}
	if creds.Email != "" && creds.Password != "" {
		return creds, nil
	}
	if !shouldPrompt() {
		if creds.Email == "" {
			return creds, fmt.Errorf("required flag --email not set")
		}
		return creds, fmt.Errorf("required flag --password not set")
	}
	return tui.PromptCredentials(creds)
}

func runLogout(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	sess, err := cctx.OpenSession()
	if err != nil {
		return err
	}

	if !sess.Authenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	if err := sess.Logout(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	fmt.Fprintln(os.Stderr, "Use 'nexconsole login' to sign in again.")
	return nil
}
