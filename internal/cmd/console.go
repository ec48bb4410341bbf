package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexconsole/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive console",
	Long: `Open the interactive console.

The console starts on the users view when a session token is stored and on
the login view otherwise. Several consoles may run at once; they share the
credentials file, so signing out in one returns all of them to login.

Logs go to the configured log file while the console owns the terminal.`,
	RunE: runConsole,
}

var consoleLogoutOnUnauthorized bool

func init() {
	consoleCmd.Flags().BoolVar(&consoleLogoutOnUnauthorized, "logout-on-401", false,
		"sign out when the API rejects the session token (overrides config)")

	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	if !tui.IsInteractive() {
		return fmt.Errorf("invalid argument: the console needs an interactive terminal")
	}

	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	if err := cctx.LogToFile(); err != nil {
		return err
	}

	sess, err := cctx.OpenSession()
	if err != nil {
		return err
	}

	logoutOn401 := cctx.Config.Session.LogoutOnUnauthorized
	if cmd.Flags().Changed("logout-on-401") {
		logoutOn401 = consoleLogoutOnUnauthorized
	}

	cctx.Logger.Info("console started", "api_url", cctx.Config.API.BaseURL)
	return tui.Run(tui.Env{
		Context:              cmd.Context(),
		Session:              sess,
		Backend:              cctx.NewClient(sess),
		Logger:               cctx.Logger,
		LogoutOnUnauthorized: logoutOn401,
		APIURL:               cctx.Config.API.BaseURL,
		CredentialsPath:      cctx.Config.CredentialsPath(),
	})
}
