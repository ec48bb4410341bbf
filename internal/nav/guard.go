package nav

import (
	"github.com/felixgeelhaar/nexconsole/internal/session"
)

// Decision is the outcome of a guard check
type Decision struct {
	// Route is the requested route. Zero when NotFound.
	Route Route
	// Allow is set when Route may be mounted as is.
	Allow bool
	// Redirect holds the path to go to instead when not allowed.
	Redirect string
	// NotFound is set for paths outside the route table.
	NotFound bool
	// State is the session state observed by this check.
	State session.State
}

// Guard evaluates navigation attempts against the session.
type Guard struct {
	session *session.Session
}

// NewGuard creates a guard over s
func NewGuard(s *session.Session) *Guard {
	return &Guard{session: s}
}

// Check decides whether path may be mounted. The credential is read on every
// call; nothing is carried over from a previous check.
func (g *Guard) Check(path string) Decision {
	state := g.session.Evaluate()

	route, ok := Lookup(path)
	if !ok {
		return Decision{NotFound: true, State: state}
	}

	d := Decision{Route: route, State: state}
	switch {
	case route.Access == Protected && state != session.StateAuthenticated:
		d.Redirect = PathLogin
	case route.Access == PublicOnly && state == session.StateAuthenticated:
		d.Redirect = DefaultAuthenticated
	default:
		d.Allow = true
	}
	return d
}
