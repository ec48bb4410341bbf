// Package config loads nexconsole configuration from ~/.nexconsole/config.yaml
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
)

// Environment variables that override file settings
const (
	EnvConfigDir = "NEXCONSOLE_CONFIG_DIR"
	EnvAPIURL    = "NEXCONSOLE_API_URL"
	EnvAPIKey    = "NEXCONSOLE_API_KEY"
	EnvLogLevel  = "NEXCONSOLE_LOG_LEVEL"
)

const (
	configFileName      = "config.yaml"
	credentialsFileName = "credentials.json"
	logFileName         = "console.log"
)

// Config is the nexconsole configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Stub    StubConfig    `yaml:"stub,omitempty"`

	// dir is the resolved configuration directory; not persisted.
	dir string
}

// APIConfig describes the remote REST API
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	RateLimit float64       `yaml:"rate_limit,omitempty"` // requests per second, 0 disables
	Burst     int           `yaml:"burst,omitempty"`
}

// SessionConfig controls credential handling
type SessionConfig struct {
	// CredentialsFile overrides <dir>/credentials.json
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	// LogoutOnUnauthorized clears the session when an authenticated call returns 401/403.
	LogoutOnUnauthorized bool `yaml:"logout_on_unauthorized,omitempty"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty"` // "text", "json"
	File   string `yaml:"file,omitempty"`   // used while the console owns the terminal
}

// StubConfig configures the local stub API server
type StubConfig struct {
	Address string `yaml:"address,omitempty"`
	PerPage int    `yaml:"per_page,omitempty"`
}

// Default returns the default configuration rooted at dir
func Default(dir string) *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://reqres.in",
			Timeout:   30 * time.Second,
			RateLimit: 5,
			Burst:     5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Stub: StubConfig{
			Address: "127.0.0.1:8089",
			PerPage: 6,
		},
		dir: dir,
	}
}

// Dir resolves the configuration directory: $NEXCONSOLE_CONFIG_DIR or ~/.nexconsole
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".nexconsole"), nil
}

// Load reads the configuration file at path. A missing file yields the
// defaults; environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	dir := filepath.Dir(path)
	cfg := Default(dir)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(errors.KindConfig, errors.ErrCodeConfigRead, fmt.Sprintf("failed to read config: %s", path), err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, errors.ErrCodeConfigParse, fmt.Sprintf("failed to parse config: %s", path), err).
				WithSuggestion("Check the YAML syntax of the configuration file")
		}
	}

	cfg.dir = dir
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadDefault loads config.yaml from the resolved configuration directory
func LoadDefault() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, configFileName))
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.API.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) applyDefaults() {
	def := Default(c.dir)
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = def.API.Timeout
	}
	if c.API.RateLimit > 0 && c.API.Burst <= 0 {
		c.API.Burst = 1
	}
	if c.Stub.Address == "" {
		c.Stub.Address = def.Stub.Address
	}
	if c.Stub.PerPage <= 0 {
		c.Stub.PerPage = def.Stub.PerPage
	}
}

// Directory returns the configuration directory the config was loaded from
func (c *Config) Directory() string {
	return c.dir
}

// Path returns the path of config.yaml
func (c *Config) Path() string {
	return filepath.Join(c.dir, configFileName)
}

// CredentialsPath returns the path of the credential store
func (c *Config) CredentialsPath() string {
	if c.Session.CredentialsFile != "" {
		return c.Session.CredentialsFile
	}
	return filepath.Join(c.dir, credentialsFileName)
}

// LogFilePath returns the log file used while the console runs
func (c *Config) LogFilePath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.dir, "logs", logFileName)
}
