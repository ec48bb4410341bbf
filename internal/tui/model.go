package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/log"
	"github.com/felixgeelhaar/nexconsole/internal/nav"
	"github.com/felixgeelhaar/nexconsole/internal/session"
	"github.com/felixgeelhaar/nexconsole/internal/users"
)

// Backend is the remote API as seen by the console
type Backend interface {
	nav.Authenticator
	users.Client
}

// Env holds the collaborators of the console
type Env struct {
	Context context.Context
	Session *session.Session
	Backend Backend
	Logger  *log.Logger

	// LogoutOnUnauthorized ends the session when the API rejects the credential.
	LogoutOnUnauthorized bool

	// Shown on the settings view.
	APIURL          string
	CredentialsPath string
}

// screen is a mounted view of the console
type screen interface {
	nav.View
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(s Styles) string
	// Typing reports whether a text field holds the keyboard.
	Typing() bool
	Help() [][2]string
}

// Model represents the TUI application state
type Model struct {
	env   Env
	nav   *nav.Navigator
	toast *toastBox

	active screen
	notice users.Notice

	// UI state
	width    int
	height   int
	ready    bool
	quitting bool

	// Error state
	lastError string

	// Styles
	styles Styles
}

// NewModel creates the console model and resolves the initial location.
func NewModel(env Env) Model {
	if env.Context == nil {
		env.Context = context.Background()
	}
	if env.Logger == nil {
		env.Logger = log.DefaultLogger()
	}

	toast := &toastBox{}
	f := &factory{env: env, toast: toast}
	navigator := nav.NewNavigator(env.Session, f.build, env.Logger)
	f.nav = navigator

	m := Model{
		env:    env,
		nav:    navigator,
		toast:  toast,
		styles: DefaultStyles(),
	}
	if _, err := navigator.Navigate(nav.PathHome); err != nil {
		m.lastError = err.Error()
	}
	m.active, _ = navigator.View().(screen)
	return m
}

// Navigator returns the navigator driving the model
func (m Model) Navigator() *nav.Navigator {
	return m.nav
}

// Init initializes the TUI model (required by Bubble Tea)
func (m Model) Init() tea.Cmd {
	if m.active == nil {
		return nil
	}
	return m.active.Init()
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case CredentialChangedMsg:
		route, moved, err := m.nav.Recheck()
		if err != nil {
			m.lastError = err.Error()
		}
		if moved && route.Path == nav.PathLogin {
			m.notice = users.Notice{Level: users.LevelInfo, Message: "Signed out in another window"}
		}
		return m.sync(nil)

	case navigateMsg:
		if _, err := m.nav.Navigate(msg.Path); err != nil {
			m.lastError = err.Error()
		}
		return m.sync(nil)

	case logoutMsg:
		if _, err := m.nav.Logout(); err != nil {
			m.lastError = err.Error()
		}
		return m.sync(nil)
	}

	if m.active == nil {
		return m, nil
	}
	if from := origin(msg); from != nil && from != m.active {
		// the screen that started it has been replaced
		return m, nil
	}
	cmd := m.active.Update(msg)
	if n, ok := m.toast.Take(); ok {
		m.notice = n
	}
	if rejected(msg) {
		if _, _, err := m.nav.Recheck(); err != nil {
			m.lastError = err.Error()
		}
	}
	return m.sync(cmd)
}

// rejected reports whether msg is an operation outcome the API refused for
// lack of a valid credential.
func rejected(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case opDoneMsg:
		return errors.IsKind(msg.Err, errors.KindAuth)
	case formDoneMsg:
		return errors.IsKind(msg.Err, errors.KindAuth)
	}
	return false
}

// sync picks up a view mounted by the navigator and starts it.
func (m Model) sync(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	current, _ := m.nav.View().(screen)
	if current == m.active {
		return m, cmd
	}
	m.active = current
	m.lastError = ""
	if current == nil {
		return m, cmd
	}
	return m, tea.Batch(cmd, current.Init())
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.active == nil {
		return m, nil
	}

	if !m.active.Typing() {
		route := m.nav.Current()
		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "H":
			if route.Protected() {
				return m.Update(navigateMsg{Path: nav.PathHome})
			}
		case "P":
			if route.Protected() {
				return m.Update(navigateMsg{Path: nav.PathProfile})
			}
		case "S":
			if route.Protected() {
				return m.Update(navigateMsg{Path: nav.PathSettings})
			}
		case "L":
			if route.Protected() {
				return m.Update(logoutMsg{})
			}
		}
	}

	cmd := m.active.Update(msg)
	if n, ok := m.toast.Take(); ok {
		m.notice = n
	}
	return m.sync(cmd)
}
