package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvLogLevel, "")

	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://reqres.in", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 6, cfg.Stub.PerPage)
	assert.Equal(t, filepath.Join(dir, "credentials.json"), cfg.CredentialsPath())
	assert.Equal(t, filepath.Join(dir, "logs", "console.log"), cfg.LogFilePath())
}

func TestLoad_FileValues(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvLogLevel, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `api:
  base_url: http://localhost:9000
  api_key: reqres-free-v1
  timeout: 5s
  rate_limit: 2
session:
  logout_on_unauthorized: true
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	assert.Equal(t, "reqres-free-v1", cfg.API.APIKey)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2.0, cfg.API.RateLimit)
	assert.Equal(t, 5, cfg.API.Burst)
	assert.True(t, cfg.Session.LogoutOnUnauthorized)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://127.0.0.1:8089")
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8089", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.APIKey)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvLogLevel, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default(dir)
	cfg.API.BaseURL = "http://example.test"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", loaded.API.BaseURL)
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/tmp/nexconsole-test")

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/nexconsole-test", dir)
}
