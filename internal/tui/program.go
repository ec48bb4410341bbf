package tui

import (
	stderrors "errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive console and blocks until the user quits or
// env.Context is cancelled. Credential changes made by other consoles are
// forwarded to the program so the mounted view is re-checked.
func Run(env Env, opts ...tea.ProgramOption) error {
	m := NewModel(env)
	defer m.nav.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(m.env.Context)}, opts...)
	program := tea.NewProgram(m, opts...)

	unsubscribe := env.Session.Subscribe(func() {
		program.Send(CredentialChangedMsg{})
	})
	defer unsubscribe()

	_, err := program.Run()
	return finish(m.env, err)
}

// finish maps the program's exit error. Cancellation is a clean exit; any
// other failure is recorded in the console log, since the terminal was not
// ours to write to.
func finish(env Env, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, tea.ErrProgramKilled) && env.Context.Err() != nil {
		return nil
	}
	env.Logger.LogError(env.Context, "console stopped", err)
	return fmt.Errorf("console: %w", err)
}
