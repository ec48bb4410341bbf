package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
)

// MinPasswordLength is the shortest password the login form accepts
const MinPasswordLength = 6

// Credentials is the login and registration request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials before any request is made
func (c Credentials) Validate() error {
	if err := ValidateEmail(c.Email); err != nil {
		return err
	}
	return ValidatePassword(c.Password)
}

// ValidateEmail rejects blank or malformed addresses
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" || !govalidator.IsEmail(email) {
		return errors.NewEmailInvalidError()
	}
	return nil
}

// ValidatePassword rejects passwords shorter than MinPasswordLength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.NewPasswordTooShortError(MinPasswordLength)
	}
	return nil
}

// TokenResponse is returned by login and registration
type TokenResponse struct {
	ID    int    `json:"id,omitempty"`
	Token string `json:"token"`
}

// Login exchanges credentials for a session token
func (c *Client) Login(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	return c.exchange(ctx, "/api/login", creds)
}

// Register creates an account and returns its session token
func (c *Client) Register(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	return c.exchange(ctx, "/api/register", creds)
}

func (c *Client) exchange(ctx context.Context, path string, creds Credentials) (*TokenResponse, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, creds)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := parseResponse(resp, &tokenResp); err != nil {
		return nil, err
	}
	if tokenResp.Token == "" {
		return nil, errors.New(errors.KindTransport, errors.ErrCodeDecodeResponse, "response did not contain a token")
	}
	return &tokenResp, nil
}

// LoginMessage returns the user-facing text for a failed login attempt
func LoginMessage(err error) string {
	if errors.IsKind(err, errors.KindValidation) {
		if ce, ok := errors.As(err); ok {
			return ce.Message
		}
	}
	switch errors.StatusOf(err) {
	case http.StatusBadRequest:
		return "Invalid email or password format."
	case http.StatusUnauthorized:
		return "Invalid credentials. Please try again."
	case http.StatusNotFound:
		return "Login service not found. Please try again later."
	case http.StatusInternalServerError:
		return "Server error. Please try again later."
	default:
		return "Login failed. Please check your credentials."
	}
}
