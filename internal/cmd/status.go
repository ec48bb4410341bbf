package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexconsole/internal/nav"
	"github.com/felixgeelhaar/nexconsole/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session state",
	Long: `Show whether a session token is stored and where a console would land.

With --watch the command keeps running and reports every change made by
another console, such as a sign out.

Examples:
  # One-off status
  nexconsole status

  # Follow sign in and sign out from other consoles
  nexconsole status --watch

  # Output as JSON for scripting
  nexconsole status --format json
`,
	RunE: runStatus,
}

var statusWatch bool

// StatusReport is the session state as seen by this process
type StatusReport struct {
	Timestamp       string `json:"timestamp" yaml:"timestamp"`
	State           string `json:"state" yaml:"state"`
	Location        string `json:"location" yaml:"location"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	APIURL          string `json:"api_url" yaml:"api_url"`
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "keep running and report changes from other consoles")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	sess, err := cctx.OpenSession()
	if err != nil {
		return err
	}
	navigator := nav.NewNavigator(sess, nil, cctx.Logger)
	defer navigator.Close()

	route, err := navigator.Navigate(nav.PathHome)
	if err != nil {
		return err
	}

	out := cctx.Output(cmd.OutOrStdout())
	report := func(route nav.Route) {
		r := buildStatusReport(navigator.State(), route, cctx.Config.CredentialsPath(), cctx.Config.API.BaseURL)
		if err := out.Format(r); err != nil {
			cctx.Logger.WithError(err).Warn("failed to write status")
		}
	}
	report(route)

	if !statusWatch {
		return nil
	}

	unsubscribe := navigator.Watch(report)
	defer unsubscribe()

	<-cmd.Context().Done()
	return nil
}

func buildStatusReport(state session.State, route nav.Route, credentialsPath, apiURL string) StatusReport {
	return StatusReport{
		Timestamp:       time.Now().Format(time.RFC3339),
		State:           state.String(),
		Location:        route.Path,
		CredentialsFile: credentialsPath,
		APIURL:          apiURL,
	}
}

// WriteText prints one status line
func (r StatusReport) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "[%s] %s -> %s\n", r.Timestamp, r.State, r.Location)
	return err
}
