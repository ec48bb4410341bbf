package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/nav"
)

type authMode int

const (
	authLogin authMode = iota
	authRegister
)

// authScreen is the login or registration form
type authScreen struct {
	f    *factory
	mode authMode

	inputs     []textinput.Model
	focus      int
	submitting bool
	errMsg     string
}

func newAuthScreen(f *factory, mode authMode) *authScreen {
	email := textinput.New()
	email.Placeholder = "eve.holt@reqres.in"
	email.Prompt = "Email:    "
	email.CharLimit = 254
	email.Cursor.SetMode(cursor.CursorStatic)

	password := textinput.New()
	password.Placeholder = "at least 6 characters"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Cursor.SetMode(cursor.CursorStatic)

	return &authScreen{
		f:      f,
		mode:   mode,
		inputs: []textinput.Model{email, password},
	}
}

func (a *authScreen) Init() tea.Cmd {
	return a.setFocus(0)
}

func (a *authScreen) Close() {}

func (a *authScreen) Typing() bool { return true }

func (a *authScreen) Help() [][2]string {
	other := [2]string{"ctrl+r", "register"}
	if a.mode == authRegister {
		other = [2]string{"ctrl+l", "login"}
	}
	return [][2]string{{"tab", "next field"}, {"enter", "submit"}, other}
}

func (a *authScreen) setFocus(i int) tea.Cmd {
	a.focus = i
	var cmd tea.Cmd
	for j := range a.inputs {
		if j == i {
			cmd = a.inputs[j].Focus()
		} else {
			a.inputs[j].Blur()
		}
	}
	return cmd
}

func (a *authScreen) credentials() api.Credentials {
	return api.Credentials{
		Email:    strings.TrimSpace(a.inputs[0].Value()),
		Password: a.inputs[1].Value(),
	}
}

func (a *authScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case signInDoneMsg:
		a.submitting = false
		if msg.Err != nil {
			a.errMsg = a.failureMessage(msg.Err)
		}
		return nil

	case tea.KeyMsg:
		if a.submitting {
			return nil
		}
		switch msg.String() {
		case "ctrl+r":
			if a.mode == authLogin {
				return navigate(nav.PathRegister)
			}
		case "ctrl+l":
			if a.mode == authRegister {
				return navigate(nav.PathLogin)
			}
		case "tab", "down":
			return a.setFocus((a.focus + 1) % len(a.inputs))
		case "shift+tab", "up":
			return a.setFocus((a.focus + len(a.inputs) - 1) % len(a.inputs))
		case "enter":
			if a.focus < len(a.inputs)-1 {
				return a.setFocus(a.focus + 1)
			}
			return a.submit()
		}
	}

	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	return cmd
}

func (a *authScreen) submit() tea.Cmd {
	creds := a.credentials()
	if err := creds.Validate(); err != nil {
		a.errMsg = a.failureMessage(err)
		return nil
	}
	a.errMsg = ""
	a.submitting = true

	f, mode := a.f, a.mode
	return func() tea.Msg {
		var err error
		if mode == authRegister {
			_, err = f.nav.Register(f.env.Context, f.env.Backend, creds)
		} else {
			_, err = f.nav.Login(f.env.Context, f.env.Backend, creds)
		}
		return signInDoneMsg{Err: err}
	}
}

func (a *authScreen) failureMessage(err error) string {
	if a.mode == authLogin {
		return api.LoginMessage(err)
	}
	if ce, ok := errors.As(err); ok {
		return ce.Message
	}
	return "Registration failed. Please try again."
}

func (a *authScreen) View(s Styles) string {
	var b strings.Builder

	title := "Sign in"
	if a.mode == authRegister {
		title = "Create an account"
	}
	b.WriteString(s.Title.Render(title))
	b.WriteString("\n")

	for _, in := range a.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	if a.submitting {
		b.WriteString("\n")
		b.WriteString(s.Muted.Render("Signing in..."))
	}
	if a.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(s.Error.Render(a.errMsg))
	}
	return b.String()
}
