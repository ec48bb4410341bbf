package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexconsole/internal/ux"
	"github.com/felixgeelhaar/nexconsole/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version number, or with --verbose the git commit, build date,
Go version and platform.`,
	RunE: runVersion,
}

var (
	versionVerbose bool
	versionJSON    bool
)

// versionReport renders version.Info for the formatter
type versionReport struct {
	version.Info `yaml:",inline"`
	verbose      bool
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "show detailed version information")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "shorthand for --format json")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if versionJSON {
		format = ux.FormatJSON
	}
	out, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: cmd.OutOrStdout()})
	if err != nil {
		return fmt.Errorf("invalid argument: %w", err)
	}
	return out.Format(versionReport{Info: version.GetInfo(), verbose: versionVerbose})
}

func (r versionReport) WriteText(w io.Writer) error {
	if !r.verbose {
		_, err := fmt.Fprintf(w, "nexconsole %s\n", r.Short())
		return err
	}
	_, err := fmt.Fprintf(w, "nexconsole: terminal admin console for a users REST API\n\n%s\n", r.Info)
	return err
}
