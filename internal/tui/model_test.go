package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/credential"
	"github.com/felixgeelhaar/nexconsole/internal/log"
	"github.com/felixgeelhaar/nexconsole/internal/nav"
	"github.com/felixgeelhaar/nexconsole/internal/server"
	"github.com/felixgeelhaar/nexconsole/internal/session"
)

type harness struct {
	backend *credential.MemoryBackend
	session *session.Session
	client  *api.Client
	stub    *server.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	stub := server.NewServer(server.Config{Logger: log.Discard()})
	ts := httptest.NewServer(stub.Routes())
	t.Cleanup(ts.Close)

	backend := credential.NewMemoryBackend()
	sess := session.New(backend.Attach(), log.Discard())
	return &harness{
		backend: backend,
		session: sess,
		client:  api.NewClient(ts.URL, api.WithTokenSource(sess), api.WithLogger(log.Discard())),
		stub:    stub,
	}
}

func (h *harness) model(t *testing.T) Model {
	t.Helper()
	m := NewModel(Env{
		Context: context.Background(),
		Session: h.session,
		Backend: h.client,
		Logger:  log.Discard(),
	})
	t.Cleanup(func() { m.nav.Close() })
	return settle(m, m.Init())
}

// settle runs cmd and every command it produces, feeding console messages
// back into the model. Timer-driven messages are dropped.
func settle(m Model, cmd tea.Cmd) Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case opDoneMsg, formDoneMsg, signInDoneMsg, navigateMsg, logoutMsg:
			updated, more := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

// held runs cmd without delivering anything to the model and returns the
// dialog outcome it produced.
func held(t *testing.T, cmd tea.Cmd) formDoneMsg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case formDoneMsg:
			return msg
		}
	}
	t.Fatal("Expected a dialog outcome")
	return formDoneMsg{}
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		updated, cmd := m.Update(k)
		m = settle(updated.(Model), cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	right = tea.KeyMsg{Type: tea.KeyRight}
)

func TestNewModelAnonymousShowsLogin(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	if got := m.nav.Current().Path; got != nav.PathLogin {
		t.Fatalf("Expected %s, got %s", nav.PathLogin, got)
	}
	if _, ok := m.active.(*authScreen); !ok {
		t.Fatalf("Expected auth screen, got %T", m.active)
	}
	if !strings.Contains(m.View(), "Sign in") {
		t.Error("Expected login view to be rendered")
	}
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	m = press(m, runes("george.bluth@reqres.in"), tab, runes("cityslicka"), enter)

	if got := m.nav.Current().Path; got != nav.PathHome {
		t.Fatalf("Expected %s after login, got %s", nav.PathHome, got)
	}
	if token, ok := h.session.Token(); !ok || token != server.StubToken {
		t.Errorf("Expected stored token %q, got %q", server.StubToken, token)
	}
	if _, ok := m.active.(*usersScreen); !ok {
		t.Fatalf("Expected users screen, got %T", m.active)
	}
	if !strings.Contains(m.View(), "George Bluth") {
		t.Error("Expected first page to be rendered")
	}
}

func TestLoginValidationShowsMessage(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	m = press(m, runes("not-an-email"), tab, runes("cityslicka"), enter)

	if got := m.nav.Current().Path; got != nav.PathLogin {
		t.Fatalf("Expected to stay on %s, got %s", nav.PathLogin, got)
	}
	if _, ok := h.session.Token(); ok {
		t.Error("Expected no credential after invalid input")
	}
	a := m.active.(*authScreen)
	if a.errMsg == "" {
		t.Error("Expected a validation message")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	m = press(m, runes("nobody@example.com"), tab, runes("cityslicka"), enter)

	if got := m.nav.Current().Path; got != nav.PathLogin {
		t.Fatalf("Expected to stay on %s, got %s", nav.PathLogin, got)
	}
	a := m.active.(*authScreen)
	if a.submitting {
		t.Error("Expected submission to finish")
	}
	if a.errMsg == "" {
		t.Error("Expected a failure message")
	}
}

func TestRegisterScreenSwitch(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := m.nav.Current().Path; got != nav.PathRegister {
		t.Fatalf("Expected %s, got %s", nav.PathRegister, got)
	}

	m = press(m, runes("eve.holt@reqres.in"), tab, runes("pistol1"), enter)
	if got := m.nav.Current().Path; got != nav.PathHome {
		t.Errorf("Expected %s after registration, got %s", nav.PathHome, got)
	}
}

func TestUsersScreenPaging(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)

	u, ok := m.active.(*usersScreen)
	if !ok {
		t.Fatalf("Expected users screen, got %T", m.active)
	}
	if u.snap.Page != 1 || len(u.snap.Items) != 6 {
		t.Fatalf("Expected page 1 with 6 users, got page %d with %d", u.snap.Page, len(u.snap.Items))
	}

	m = press(m, right)
	u = m.active.(*usersScreen)
	if u.snap.Page != 2 {
		t.Errorf("Expected page 2, got %d", u.snap.Page)
	}
	if !strings.Contains(m.View(), "Michael Lawson") {
		t.Error("Expected second page to be rendered")
	}

	// Already on the last page.
	m = press(m, right)
	if got := m.active.(*usersScreen).snap.Page; got != 2 {
		t.Errorf("Expected to stay on page 2, got %d", got)
	}

	m = press(m, runes("1"))
	if got := m.active.(*usersScreen).snap.Page; got != 1 {
		t.Errorf("Expected page 1, got %d", got)
	}
}

func TestUsersScreenCreate(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)

	m = press(m, runes("a"))
	if !m.active.Typing() {
		t.Fatal("Expected the dialog to hold the keyboard")
	}
	m = press(m, runes("Ada Lovelace"), tab, runes("mathematician"), enter)

	u := m.active.(*usersScreen)
	if u.form.State().Open {
		t.Error("Expected the dialog to close after a successful create")
	}
	if !strings.Contains(m.notice.Message, "Ada Lovelace") {
		t.Errorf("Expected a created notice, got %q", m.notice.Message)
	}
	if h.stub.Store().Len() != 13 {
		t.Errorf("Expected 13 users, got %d", h.stub.Store().Len())
	}
}

func TestUsersScreenCreateRequiresFields(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)

	m = press(m, runes("a"), enter)

	u := m.active.(*usersScreen)
	state := u.form.State()
	if !state.Open || state.Err == nil {
		t.Error("Expected the dialog to stay open with an error")
	}
	if h.stub.Store().Len() != 12 {
		t.Errorf("Expected no user to be created, got %d users", h.stub.Store().Len())
	}
}

func TestReplacedScreenResultIsDropped(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)
	first := m.active

	m = press(m, runes("a"), runes("Ada Lovelace"), tab, runes("mathematician"))
	updated, pending := m.Update(enter)
	m = updated.(Model)

	for _, path := range []string{nav.PathProfile, nav.PathHome} {
		updated, cmd := m.Update(navigateMsg{Path: path})
		m = settle(updated.(Model), cmd)
	}
	second, ok := m.active.(*usersScreen)
	if !ok || m.active == first {
		t.Fatalf("Expected a new users screen, got %T", m.active)
	}

	m = press(m, runes("a"), runes("Grace Hopper"), tab, runes("admiral"))
	updated, submit := m.Update(enter)
	m = updated.(Model)
	if !second.form.State().Submitting {
		t.Fatal("Expected the new dialog to be submitting")
	}

	late := held(t, pending)
	if late.Err == nil {
		t.Fatal("Expected the closed screen's submission to fail")
	}
	updated, cmd := m.Update(late)
	m = settle(updated.(Model), cmd)

	state := second.form.State()
	if !state.Submitting || state.Err != nil {
		t.Errorf("Expected the new dialog untouched, got submitting=%v err=%v", state.Submitting, state.Err)
	}

	m = settle(m, submit)
	if second.form.State().Open {
		t.Error("Expected the new dialog to close after its own submission")
	}
	if h.stub.Store().Len() != 13 {
		t.Errorf("Expected only the new screen's user to be created, got %d users", h.stub.Store().Len())
	}
}

func TestUsersScreenDelete(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)

	m = press(m, runes("d"))
	if !strings.Contains(m.View(), "Delete George Bluth?") {
		t.Fatal("Expected the confirmation to be shown")
	}

	m = press(m, runes("n"))
	if h.stub.Store().Len() != 12 {
		t.Fatal("Expected cancel to keep the user")
	}

	m = press(m, runes("d"), runes("y"))
	if _, ok := h.stub.Store().Get(1); ok {
		t.Error("Expected user 1 to be deleted")
	}
	if !strings.Contains(m.notice.Message, "George Bluth was deleted") {
		t.Errorf("Expected a deleted notice, got %q", m.notice.Message)
	}
	if strings.Contains(m.View(), "Delete George Bluth?") {
		t.Error("Expected the confirmation to be dismissed")
	}
}

func TestNavigationKeys(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)

	m = press(m, runes("P"))
	if got := m.nav.Current().Path; got != nav.PathProfile {
		t.Errorf("Expected %s, got %s", nav.PathProfile, got)
	}
	if !strings.Contains(m.View(), "Token: Qpw") {
		t.Error("Expected the masked token on the profile view")
	}

	m = press(m, runes("S"))
	if got := m.nav.Current().Path; got != nav.PathSettings {
		t.Errorf("Expected %s, got %s", nav.PathSettings, got)
	}

	m = press(m, runes("H"))
	if got := m.nav.Current().Path; got != nav.PathHome {
		t.Errorf("Expected %s, got %s", nav.PathHome, got)
	}
}

func TestLogoutKey(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)

	m = press(m, runes("L"))

	if got := m.nav.Current().Path; got != nav.PathLogin {
		t.Errorf("Expected %s after logout, got %s", nav.PathLogin, got)
	}
	if _, ok := h.session.Token(); ok {
		t.Error("Expected the credential to be cleared")
	}
}

func TestCredentialChangedElsewhere(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)

	other := session.New(h.backend.Attach(), log.Discard())
	if err := other.Logout(); err != nil {
		t.Fatal(err)
	}

	updated, cmd := m.Update(CredentialChangedMsg{})
	m = settle(updated.(Model), cmd)

	if got := m.nav.Current().Path; got != nav.PathLogin {
		t.Errorf("Expected %s, got %s", nav.PathLogin, got)
	}
	if m.notice.Message != "Signed out in another window" {
		t.Errorf("Expected sign out notice, got %q", m.notice.Message)
	}
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Login(server.StubToken); err != nil {
		t.Fatal(err)
	}
	m := h.model(t)

	updated, cmd := m.Update(runes("q"))
	m = updated.(Model)
	if !m.quitting {
		t.Error("Expected quitting to be set")
	}
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Error("Expected empty view while quitting")
	}
}

func TestQuitKeyTypesWhileOnLogin(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	updated, _ := m.Update(runes("q"))
	m = updated.(Model)
	if m.quitting {
		t.Error("Expected q to be typed into the email field")
	}
}

func TestWindowSize(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)
	if !m.ready || m.width != 100 || m.height != 40 {
		t.Errorf("Expected 100x40 and ready, got %dx%d ready=%t", m.width, m.height, m.ready)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "***"},
		{"QpwL5tke", "QpwL****"},
	}
	for _, tt := range tests {
		if got := maskToken(tt.in); got != tt.want {
			t.Errorf("maskToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
