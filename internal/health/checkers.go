package health

import (
	"context"
	"os"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/config"
	"github.com/felixgeelhaar/nexconsole/internal/credential"
	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/log"
)

// ConfigChecker verifies that the configuration file parses.
type ConfigChecker struct {
	path string
}

func NewConfigChecker(path string) *ConfigChecker {
	return &ConfigChecker{path: path}
}

func (c *ConfigChecker) Name() string { return "config" }

func (c *ConfigChecker) Check(ctx context.Context) *Result {
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		return Healthy("no config file, using defaults").WithDetail("path", c.path)
	}
	cfg, err := config.Load(c.path)
	if err != nil {
		return Unhealthy(err.Error()).WithDetail("path", c.path)
	}
	return Healthy("config loaded").
		WithDetail("path", c.path).
		WithDetail("base_url", cfg.API.BaseURL)
}

// CredentialsChecker verifies that the credential store opens and reports
// whether a session token is present.
type CredentialsChecker struct {
	path   string
	logger *log.Logger
}

func NewCredentialsChecker(path string, logger *log.Logger) *CredentialsChecker {
	return &CredentialsChecker{path: path, logger: logger}
}

func (c *CredentialsChecker) Name() string { return "credentials" }

func (c *CredentialsChecker) Check(ctx context.Context) *Result {
	store, err := credential.OpenFileStore(c.path, c.logger)
	if err != nil {
		return Unhealthy(err.Error()).WithDetail("path", c.path)
	}
	defer store.Close()

	if _, ok := store.Get(); !ok {
		return Degraded("not signed in").WithDetail("path", c.path)
	}
	return Healthy("signed in").WithDetail("path", c.path)
}

// UserLister is the part of the API client the API check needs.
type UserLister interface {
	ListUsers(ctx context.Context, page int) (*api.UserPage, error)
}

// APIChecker verifies that the users API answers a first-page listing.
type APIChecker struct {
	client  UserLister
	baseURL string
}

func NewAPIChecker(client UserLister, baseURL string) *APIChecker {
	return &APIChecker{client: client, baseURL: baseURL}
}

func (c *APIChecker) Name() string { return "api" }

func (c *APIChecker) Check(ctx context.Context) *Result {
	page, err := c.client.ListUsers(ctx, 1)
	switch {
	case err == nil:
		return Healthy("users API reachable").
			WithDetail("url", c.baseURL).
			WithDetail("total_users", page.Total)
	case errors.IsKind(err, errors.KindAuth):
		return Degraded("users API rejected the credentials").
			WithDetail("url", c.baseURL).
			WithDetail("status", errors.StatusOf(err))
	default:
		r := Unhealthy(err.Error()).WithDetail("url", c.baseURL)
		if status := errors.StatusOf(err); status != 0 {
			r.WithDetail("status", status)
		}
		return r
	}
}
