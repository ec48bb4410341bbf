package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexconsole/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, credentials and API reachability",
	Long: `Run diagnostics to check that nexconsole is ready to use.

Checks include:
  • Configuration file syntax
  • Credential storage and whether a session is stored
  • Users API reachability with the stored session

Examples:
  # Run diagnostics
  nexconsole doctor

  # Output as JSON for CI/CD
  nexconsole doctor --format json
`,
	RunE: runDoctor,
}

var doctorTimeout time.Duration

// DoctorCheck is one diagnostic in a DoctorReport
type DoctorCheck struct {
	Name          string `json:"name" yaml:"name"`
	health.Result `yaml:",inline"`
}

// DoctorReport is the outcome of every diagnostic
type DoctorReport struct {
	Status  health.Status `json:"status" yaml:"status"`
	Healthy bool          `json:"healthy" yaml:"healthy"`
	Checks  []DoctorCheck `json:"checks" yaml:"checks"`
}

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 5*time.Second, "timeout per check")

	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	manager := health.NewManager().WithTimeout(doctorTimeout)
	manager.AddChecker(health.NewConfigChecker(cctx.ConfigPath))
	manager.AddChecker(health.NewCredentialsChecker(cctx.Config.CredentialsPath(), cctx.Logger))

	// Without storage the API is probed anonymously.
	client := cctx.NewClient(nil)
	if sess, err := cctx.OpenSession(); err == nil {
		client = cctx.NewClient(sess)
	}
	manager.AddChecker(health.NewAPIChecker(client, cctx.Config.API.BaseURL))

	results := manager.Check(cmd.Context())
	report := DoctorReport{Status: manager.OverallStatus(results)}
	report.Healthy = report.Status != health.StatusUnhealthy
	for _, name := range manager.Names() {
		report.Checks = append(report.Checks, DoctorCheck{Name: name, Result: *results[name]})
	}

	if err := cctx.Output(cmd.OutOrStdout()).Format(report); err != nil {
		return err
	}
	if !report.Healthy {
		return fmt.Errorf("system health check failed")
	}
	return nil
}

// WriteText renders one line per check followed by the overall status
func (r DoctorReport) WriteText(w io.Writer) error {
	for _, c := range r.Checks {
		icon := "✓"
		switch c.Status {
		case health.StatusDegraded:
			icon = "⚠"
		case health.StatusUnhealthy:
			icon = "✗"
		}
		if _, err := fmt.Fprintf(w, "  %s %-12s %s\n", icon, c.Name, c.Message); err != nil {
			return err
		}
	}

	summary := "System is healthy and ready to use"
	switch r.Status {
	case health.StatusDegraded:
		summary = "System is usable with warnings"
	case health.StatusUnhealthy:
		summary = "System has issues that need attention"
	}
	_, err := fmt.Fprintf(w, "\n%s\n", summary)
	return err
}
