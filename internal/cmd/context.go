package cmd

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/config"
	"github.com/felixgeelhaar/nexconsole/internal/credential"
	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/log"
	"github.com/felixgeelhaar/nexconsole/internal/session"
	"github.com/felixgeelhaar/nexconsole/internal/tui"
	"github.com/felixgeelhaar/nexconsole/internal/ux"
	"github.com/felixgeelhaar/nexconsole/internal/version"
)

// CommandContext holds the resolved flags, configuration and logger of one
// command invocation. Commands call NewCommandContext in RunE and Close it
// when done:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cctx, err := NewCommandContext(cmd)
//		if err != nil {
//			return err
//		}
//		defer cctx.Close()
//	}
type CommandContext struct {
	// Flags
	ConfigPath string
	LogLevel   string
	Format     string

	Config *config.Config
	Logger *log.Logger

	closers []func() error
}

// NewCommandContext reads the persistent flags and loads the configuration.
// Flags override the file and environment.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	if err := ux.ValidateFormat(format); err != nil {
		return nil, fmt.Errorf("invalid argument: %w", err)
	}

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if configPath == "" {
		cfg, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	c := &CommandContext{
		ConfigPath: cfg.Path(),
		LogLevel:   cfg.Logging.Level,
		Format:     format,
		Config:     cfg,
	}
	c.setLogger(log.OutputStderr())
	return c, nil
}

func (c *CommandContext) setLogger(out log.Output) {
	c.Logger = log.New(log.Config{
		Level:          log.ParseLevel(c.Config.Logging.Level),
		Format:         log.ParseFormat(c.Config.Logging.Format),
		Output:         out,
		ServiceName:    "nexconsole",
		ServiceVersion: version.GetInfo().Short(),
	})
	log.SetDefaultLogger(c.Logger)
}

// LogToFile redirects logging to the configured log file. The console owns
// the terminal while it runs.
func (c *CommandContext) LogToFile() error {
	out, err := log.OutputFile(c.Config.LogFilePath())
	if err != nil {
		return err
	}
	c.closers = append(c.closers, out.Close)
	c.setLogger(out)
	return nil
}

// OpenSession opens the shared credentials file and returns a session over it
func (c *CommandContext) OpenSession() (*session.Session, error) {
	store, err := credential.OpenFileStore(c.Config.CredentialsPath(), c.Logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, store.Close)
	return session.New(store, c.Logger), nil
}

// NewClient builds an API client from the configuration. tokens may be nil
// for calls that need no credential.
func (c *CommandContext) NewClient(tokens api.TokenSource) *api.Client {
	opts := []api.Option{
		api.WithTimeout(c.Config.API.Timeout),
		api.WithRateLimit(c.Config.API.RateLimit, c.Config.API.Burst),
		api.WithLogger(c.Logger),
	}
	if key := c.Config.API.APIKey; key != "" {
		opts = append(opts, api.WithAPIKey(key))
	}
	if tokens != nil {
		opts = append(opts, api.WithTokenSource(tokens))
	}
	return api.NewClient(c.Config.API.BaseURL, opts...)
}

// Output returns the formatter for the --format flag writing to w
func (c *CommandContext) Output(w io.Writer) ux.Formatter {
	// c.Format was validated in NewCommandContext
	f, _ := ux.NewFormatter(c.Format, &ux.FormatterOptions{Writer: w})
	return f
}

// Close releases everything opened through the context, newest first
func (c *CommandContext) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return stderrors.Join(errs...)
}

// shouldPrompt reports whether missing input may be asked for interactively
var shouldPrompt = tui.ShouldPrompt

// requireSession fails unless a credential is present
func requireSession(s *session.Session) error {
	if s.Authenticated() {
		return nil
	}
	return errors.New(errors.KindAuth, errors.ErrCodeUnauthorized, "not signed in").
		WithSuggestion("Sign in: nexconsole login")
}
