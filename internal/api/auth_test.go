package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/server"
)

func TestCredentialsValidate(t *testing.T) {
	tests := []struct {
		name    string
		creds   api.Credentials
		wantErr errors.ErrorCode
	}{
		{"valid", api.Credentials{Email: "eve.holt@reqres.in", Password: "pistol"}, ""},
		{"empty email", api.Credentials{Password: "pistol"}, errors.ErrCodeEmailInvalid},
		{"malformed email", api.Credentials{Email: "eve.holt", Password: "pistol"}, errors.ErrCodeEmailInvalid},
		{"short password", api.Credentials{Email: "eve.holt@reqres.in", Password: "pist"}, errors.ErrCodePasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			ce, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantErr, ce.Code)
			assert.Equal(t, errors.KindValidation, ce.Kind)
		})
	}
}

func TestLogin(t *testing.T) {
	_, ts := newStub(t, server.Config{})

	resp, err := newClient(ts.URL).Login(context.Background(), api.Credentials{Email: "eve.holt@reqres.in", Password: "cityslicka"})
	require.NoError(t, err)
	assert.Equal(t, server.StubToken, resp.Token)
}

func TestLoginValidationShortCircuits(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Login(context.Background(), api.Credentials{Email: "nope", Password: "pistol"})
	require.Error(t, err)
	assert.Zero(t, hits.Load())
	assert.Equal(t, "Please enter a valid email address", api.LoginMessage(err))
}

func TestLoginMissingToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Login(context.Background(), api.Credentials{Email: "eve.holt@reqres.in", Password: "pistol"})
	require.Error(t, err)
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
}

func TestRegister(t *testing.T) {
	_, ts := newStub(t, server.Config{})
	c := newClient(ts.URL)

	resp, err := c.Register(context.Background(), api.Credentials{Email: "eve.holt@reqres.in", Password: "pistol"})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.ID)
	assert.Equal(t, server.StubToken, resp.Token)

	_, err = c.Register(context.Background(), api.Credentials{Email: "sydney@fife.io", Password: "pistol"})
	require.Error(t, err)
	assert.Equal(t, errors.KindRequest, errors.KindOf(err))
	assert.Contains(t, err.Error(), "Only defined users succeed registration")
}

func TestLoginMessage(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "Invalid email or password format."},
		{http.StatusUnauthorized, "Invalid credentials. Please try again."},
		{http.StatusNotFound, "Login service not found. Please try again later."},
		{http.StatusInternalServerError, "Server error. Please try again later."},
		{http.StatusTeapot, "Login failed. Please check your credentials."},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			_, err := newClient(ts.URL).Login(context.Background(), api.Credentials{Email: "eve.holt@reqres.in", Password: "pistol"})
			require.Error(t, err)
			assert.Equal(t, tt.want, api.LoginMessage(err))
		})
	}

	assert.Equal(t, "Login failed. Please check your credentials.", api.LoginMessage(errors.NewTransportError(nil)))
}
