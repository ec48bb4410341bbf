package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/nexconsole/internal/users"
)

// CredentialChangedMsg reports that another context changed the session credential
type CredentialChangedMsg struct{}

// navigateMsg asks the model to navigate to Path
type navigateMsg struct {
	Path string
}

// logoutMsg asks the model to end the session
type logoutMsg struct{}

// signInDoneMsg carries the outcome of a login or registration
type signInDoneMsg struct {
	Err error
}

// opDoneMsg carries the outcome of a users controller operation started by
// the screen From.
type opDoneMsg struct {
	From screen
	Op   string
	Err  error
}

// formDoneMsg carries the outcome of a dialog submission started by the
// screen From.
type formDoneMsg struct {
	From screen
	Err  error
}

// origin returns the screen that started the operation behind msg, or nil
// when msg is not an operation outcome.
func origin(msg tea.Msg) screen {
	switch msg := msg.(type) {
	case opDoneMsg:
		return msg.From
	case formDoneMsg:
		return msg.From
	}
	return nil
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{Path: path} }
}

// toastBox keeps the latest notice. Notices arrive from command goroutines
// and are taken by the UI loop.
type toastBox struct {
	mu      sync.Mutex
	current users.Notice
	fresh   bool
}

func (t *toastBox) Notify(n users.Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = n
	t.fresh = true
}

// Take returns the latest notice once.
func (t *toastBox) Take() (users.Notice, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.fresh {
		return users.Notice{}, false
	}
	t.fresh = false
	return t.current, true
}
