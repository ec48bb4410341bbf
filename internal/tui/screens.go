package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/nexconsole/internal/nav"
	"github.com/felixgeelhaar/nexconsole/internal/users"
)

// factory constructs the screen for each route
type factory struct {
	env   Env
	toast *toastBox
	nav   *nav.Navigator
}

func (f *factory) build(route nav.Route) (nav.View, error) {
	switch route.Path {
	case nav.PathLogin:
		return newAuthScreen(f, authLogin), nil
	case nav.PathRegister:
		return newAuthScreen(f, authRegister), nil
	case nav.PathHome:
		opts := []users.Option{
			users.WithNotifier(f.toast),
			users.WithLogger(f.env.Logger),
		}
		if f.env.LogoutOnUnauthorized {
			opts = append(opts, users.WithLogoutOnUnauthorized(f.env.Session))
		}
		return newUsersScreen(f.env.Context, users.NewController(f.env.Backend, opts...)), nil
	case nav.PathProfile:
		return newStaticScreen(route.Title, f.profileLines()), nil
	case nav.PathSettings:
		return newStaticScreen(route.Title, f.settingsLines()), nil
	}
	return nil, fmt.Errorf("no screen for %s", route.Path)
}

func (f *factory) profileLines() []string {
	token, _ := f.env.Session.Token()
	return []string{
		"Signed in",
		"Token: " + maskToken(token),
	}
}

func (f *factory) settingsLines() []string {
	return []string{
		"API URL:          " + f.env.APIURL,
		"Credentials file: " + f.env.CredentialsPath,
		fmt.Sprintf("Logout on 401:    %t", f.env.LogoutOnUnauthorized),
	}
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-4)
}

// staticScreen shows fixed lines. Profile and settings are informational only.
type staticScreen struct {
	title string
	lines []string
}

func newStaticScreen(title string, lines []string) *staticScreen {
	return &staticScreen{title: title, lines: lines}
}

func (s *staticScreen) Init() tea.Cmd { return nil }

func (s *staticScreen) Update(tea.Msg) tea.Cmd { return nil }

func (s *staticScreen) Typing() bool { return false }

func (s *staticScreen) Close() {}

func (s *staticScreen) Help() [][2]string { return nil }

func (s *staticScreen) View(styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(s.title))
	b.WriteString("\n")
	for _, line := range s.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
