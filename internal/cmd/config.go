package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/nexconsole/internal/config"
	"github.com/felixgeelhaar/nexconsole/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit nexconsole configuration",
	Long: `Manage nexconsole configuration stored at ~/.nexconsole/config.yaml

Configuration includes:
  • API base URL, API key, timeout and rate limit
  • Credentials file location and sign-out on rejected tokens
  • Logging settings
  • Stub server address and page size

Environment variables override the file:
  NEXCONSOLE_CONFIG_DIR, NEXCONSOLE_API_URL, NEXCONSOLE_API_KEY, NEXCONSOLE_LOG_LEVEL

Examples:
  # View current configuration
  nexconsole config view

  # Edit configuration in $EDITOR
  nexconsole config edit

  # Get a specific value
  nexconsole config get api.base_url

  # Set a specific value
  nexconsole config set api.base_url http://127.0.0.1:8089

  # Show configuration file path
  nexconsole config path
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	Long:  `Display the effective configuration, including environment overrides.`,
	RunE:  runConfigView,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration in $EDITOR",
	Long:  `Open the configuration file in your default editor (from $EDITOR environment variable).`,
	RunE:  runConfigEdit,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  `Retrieve the value of a specific configuration key using dot notation (e.g., api.base_url).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific configuration value",
	Long:  `Set the value of a specific configuration key using dot notation (e.g., api.timeout 10s).`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	if cctx.Format == ux.FormatJSON || cctx.Format == ux.FormatYAML {
		return cctx.Output(cmd.OutOrStdout()).Format(cctx.Config)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file: %s\n\n", cctx.Config.Path())

	data, err := yaml.Marshal(cctx.Config)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	path := cctx.Config.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Default(cctx.Config.Directory()).Save(path); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	}

	// Get editor from environment
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi" // Fallback to vi
	}

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	// Validate the edited config
	if _, err := config.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration may contain errors: %v\n", err)
		fmt.Fprintf(os.Stderr, "Please check and fix the configuration file.\n")
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration updated successfully")
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	value, err := getNestedValue(cctx.Config, args[0])
	if err != nil {
		return fmt.Errorf("failed to get value: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	// Edit the file contents only, so environment overrides are not persisted.
	cfg, err := config.Load(cctx.Config.Path())
	if err != nil {
		return err
	}
	if err := setNestedValue(cfg, key, value); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	if err := cfg.Save(cctx.Config.Path()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck

	fmt.Fprintln(cmd.OutOrStdout(), cctx.Config.Path())
	return nil
}

// getNestedValue retrieves a value from the config using dot notation
func getNestedValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "api.base_url":
		return cfg.API.BaseURL, nil
	case "api.api_key":
		return cfg.API.APIKey, nil
	case "api.timeout":
		return cfg.API.Timeout.String(), nil
	case "api.rate_limit":
		return strconv.FormatFloat(cfg.API.RateLimit, 'f', -1, 64), nil
	case "api.burst":
		return strconv.Itoa(cfg.API.Burst), nil
	case "session.credentials_file":
		return cfg.CredentialsPath(), nil
	case "session.logout_on_unauthorized":
		return strconv.FormatBool(cfg.Session.LogoutOnUnauthorized), nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	case "logging.file":
		return cfg.LogFilePath(), nil
	case "stub.address":
		return cfg.Stub.Address, nil
	case "stub.per_page":
		return strconv.Itoa(cfg.Stub.PerPage), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setNestedValue sets a value in the config using dot notation
func setNestedValue(cfg *config.Config, key, value string) error {
	switch key {
	case "api.base_url":
		cfg.API.BaseURL = value
	case "api.api_key":
		cfg.API.APIKey = value
	case "api.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		cfg.API.Timeout = d
	case "api.rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		cfg.API.RateLimit = f
	case "api.burst":
		return setInt(&cfg.API.Burst, value)
	case "session.credentials_file":
		cfg.Session.CredentialsFile = value
	case "session.logout_on_unauthorized":
		cfg.Session.LogoutOnUnauthorized = parseBool(value)
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "logging.file":
		cfg.Logging.File = value
	case "stub.address":
		cfg.Stub.Address = value
	case "stub.per_page":
		return setInt(&cfg.Stub.PerPage, value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	*dst = n
	return nil
}

// parseBool parses a boolean string value
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	}
	return false
}
