package nav

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/log"
	"github.com/felixgeelhaar/nexconsole/internal/session"
)

// View is a mounted screen. Close is called when the navigator leaves it.
type View interface {
	Close()
}

// ViewFactory constructs the view for an allowed route. It runs with the
// navigator locked and must not call back into it.
type ViewFactory func(Route) (View, error)

// Navigator owns the current location and the mounted view.
type Navigator struct {
	session *session.Session
	guard   *Guard
	factory ViewFactory
	logger  *log.Logger

	mu      sync.Mutex
	current Route
	mounted bool
	view    View
	state   session.State
}

// NewNavigator creates a navigator. Nothing is mounted until the first Navigate.
func NewNavigator(s *session.Session, factory ViewFactory, logger *log.Logger) *Navigator {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Navigator{
		session: s,
		guard:   NewGuard(s),
		factory: factory,
		logger:  logger.WithComponent("nav"),
	}
}

// Navigate resolves path through the guard and mounts the resulting route.
// At most one redirect is followed. The factory is only invoked for the
// route that is finally allowed.
func (n *Navigator) Navigate(path string) (Route, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.navigate(path)
}

func (n *Navigator) navigate(path string) (Route, error) {
	d := n.guard.Check(path)
	n.state = d.State
	if d.NotFound {
		return n.current, errors.New(errors.KindNotFound, errors.ErrCodeNotFound, fmt.Sprintf("no view at %s", path))
	}

	if !d.Allow {
		n.logger.Debug("redirect", "from", path, "to", d.Redirect, "state", d.State.String())
		d = n.guard.Check(d.Redirect)
		n.state = d.State
		if !d.Allow {
			// the credential changed between the two reads
			return n.current, errors.New(errors.KindAuth, errors.ErrCodeUnauthorized, fmt.Sprintf("navigation to %s was not settled", path))
		}
	}

	if n.mounted && n.current.Path == d.Route.Path {
		return n.current, nil
	}
	return d.Route, n.mount(d.Route)
}

func (n *Navigator) mount(route Route) error {
	if n.view != nil {
		n.view.Close()
		n.view = nil
	}
	n.current = route
	n.mounted = true

	if n.factory == nil {
		return nil
	}
	view, err := n.factory(route)
	if err != nil {
		n.logger.WithError(err).Warn("view construction failed", "path", route.Path)
		n.mounted = false
		return err
	}
	n.view = view
	return nil
}

// Recheck re-evaluates the current location, typically after a credential
// change made by another context. It reports whether a redirect happened.
func (n *Navigator) Recheck() (Route, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.mounted {
		return n.current, false, nil
	}
	before := n.current.Path
	route, err := n.navigate(before)
	return route, route.Path != before, err
}

// Watch re-checks the location on every credential change from another
// context and reports redirects to fn.
func (n *Navigator) Watch(fn func(Route)) (unsubscribe func()) {
	return n.session.Subscribe(func() {
		route, moved, err := n.Recheck()
		if err != nil {
			n.logger.WithError(err).Warn("recheck failed")
			return
		}
		if moved && fn != nil {
			fn(route)
		}
	})
}

// Logout ends the session and goes to the login view.
func (n *Navigator) Logout() (Route, error) {
	if err := n.session.Logout(); err != nil {
		return n.Current(), err
	}
	return n.Navigate(PathLogin)
}

// Current returns the mounted route.
func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// View returns the mounted view, or nil.
func (n *Navigator) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view
}

// State returns the session state seen by the last guard check.
func (n *Navigator) State() session.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Close tears down the mounted view.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.view != nil {
		n.view.Close()
		n.view = nil
	}
	n.mounted = false
}
