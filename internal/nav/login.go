package nav

import (
	"context"

	"github.com/felixgeelhaar/nexconsole/internal/api"
)

// Authenticator exchanges credentials for a session token
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (*api.TokenResponse, error)
	Register(ctx context.Context, creds api.Credentials) (*api.TokenResponse, error)
}

// Login authenticates, stores the token and moves to the default
// authenticated view. On failure the session and location are unchanged.
func (n *Navigator) Login(ctx context.Context, auth Authenticator, creds api.Credentials) (Route, error) {
	return n.signIn(ctx, auth.Login, creds)
}

// Register creates an account and signs in with the returned token.
func (n *Navigator) Register(ctx context.Context, auth Authenticator, creds api.Credentials) (Route, error) {
	return n.signIn(ctx, auth.Register, creds)
}

func (n *Navigator) signIn(ctx context.Context, exchange func(context.Context, api.Credentials) (*api.TokenResponse, error), creds api.Credentials) (Route, error) {
	resp, err := exchange(ctx, creds)
	if err != nil {
		n.logger.WithError(err).DebugContext(ctx, "sign in rejected")
		return n.Current(), err
	}
	if err := n.session.Login(resp.Token); err != nil {
		return n.Current(), err
	}
	return n.Navigate(DefaultAuthenticated)
}
