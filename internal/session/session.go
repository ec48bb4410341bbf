// Package session is the explicit session context handed to the route guard,
// the HTTP client and the CRUD controller. It never caches the token: every
// read goes to the credential store, so all readers observe the same value.
package session

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/nexconsole/internal/credential"
	"github.com/felixgeelhaar/nexconsole/internal/log"
)

// State is the authentication state derived from the latest credential read
type State int

const (
	// StateUnknown is the state before any evaluation
	StateUnknown State = iota
	// StateAuthenticated means a token was present
	StateAuthenticated
	// StateAnonymous means no token was present
	StateAnonymous
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateAnonymous:
		return "ANONYMOUS"
	default:
		return "UNKNOWN"
	}
}

// Session wraps a credential store.
type Session struct {
	store  credential.Store
	logger *log.Logger

	mu    sync.Mutex
	state State
}

// New creates a session over store.
func New(store credential.Store, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Session{
		store:  store,
		logger: logger.WithComponent("session"),
	}
}

// Token reads the current token.
func (s *Session) Token() (string, bool) {
	return s.store.Get()
}

// Evaluate reads the credential and records the resulting state.
func (s *Session) Evaluate() State {
	_, ok := s.store.Get()
	state := StateAnonymous
	if ok {
		state = StateAuthenticated
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return state
}

// Authenticated reports whether a token is present right now.
func (s *Session) Authenticated() bool {
	return s.Evaluate() == StateAuthenticated
}

// State returns the state recorded by the last evaluation.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Login stores token as the session credential.
func (s *Session) Login(token string) error {
	if token == "" {
		return fmt.Errorf("login: empty token")
	}
	if err := s.store.Set(token); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.Evaluate()
	s.logger.Info("session started")
	return nil
}

// Logout clears the session credential.
func (s *Session) Logout() error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.Evaluate()
	s.logger.Info("session ended")
	return nil
}

// Subscribe registers fn for credential changes made by other contexts.
func (s *Session) Subscribe(fn func()) (unsubscribe func()) {
	return s.store.OnChange(func() {
		s.Evaluate()
		fn()
	})
}
