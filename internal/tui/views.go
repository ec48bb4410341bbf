package tui

import (
	"strings"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/nav"
)

// render renders the header, the mounted screen, the toast and the help line
func (m Model) render() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.active != nil {
		b.WriteString(m.active.View(m.styles))
		b.WriteString("\n")
	}

	if m.notice.Message != "" {
		b.WriteString(m.styles.NoticeStyle(m.notice.Level).Render(m.notice.Message))
		b.WriteString("\n")
	}

	if m.lastError != "" {
		b.WriteString(m.styles.Error.Render("Error: ") + m.lastError)
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpLine())
	return b.String()
}

// renderHeader shows the console name and, when signed in, the protected routes
func (m Model) renderHeader() string {
	current := m.nav.Current()
	header := m.styles.Title.Render("nexconsole")
	if !current.Protected() {
		return header
	}

	var tabs []string
	for _, r := range nav.Routes() {
		if !r.Protected() {
			continue
		}
		if r.Path == current.Path {
			tabs = append(tabs, m.styles.Highlighted.Render(r.Title))
		} else {
			tabs = append(tabs, m.styles.Muted.Render(r.Title))
		}
	}
	return header + "  " + strings.Join(tabs, " ")
}

// renderHelpLine renders the help line at the bottom
func (m Model) renderHelpLine() string {
	var items []string
	if m.active != nil {
		for _, h := range m.active.Help() {
			items = append(items, m.styles.Key.Render(h[0])+" "+m.styles.KeyDesc.Render(h[1]))
		}
	}
	if m.active == nil || len(m.active.Help()) == 0 {
		items = append(items,
			m.styles.Key.Render("H")+" users",
			m.styles.Key.Render("L")+" logout",
			m.styles.Key.Render("q")+" quit",
		)
	}
	return m.styles.Help.Render(strings.Join(items, " • "))
}

// errorText is the message of a coded error without its suggestions
func errorText(err error) string {
	if ce, ok := errors.As(err); ok {
		return ce.Message
	}
	return err.Error()
}
