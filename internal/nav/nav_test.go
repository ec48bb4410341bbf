package nav

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/nexconsole/internal/credential"
	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/log"
	"github.com/felixgeelhaar/nexconsole/internal/session"
)

// recorder records constructed and closed views.
type recorder struct {
	mu     sync.Mutex
	events []string
}

type fakeView struct {
	path string
	rec  *recorder
}

func (v *fakeView) Close() { v.rec.add("close " + v.path) }

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) factory(route Route) (View, error) {
	r.add("mount " + route.Path)
	return &fakeView{path: route.Path, rec: r}, nil
}

func newNavigator(t *testing.T, store credential.Store) (*Navigator, *session.Session, *recorder) {
	t.Helper()
	s := session.New(store, log.Discard())
	rec := &recorder{}
	return NewNavigator(s, rec.factory, log.Discard()), s, rec
}

func TestLookup(t *testing.T) {
	for _, r := range Routes() {
		got, ok := Lookup(r.Path)
		require.True(t, ok, r.Path)
		assert.Equal(t, r, got)
	}

	_, ok := Lookup("/nope")
	assert.False(t, ok)

	home, _ := Lookup(PathHome)
	assert.True(t, home.Protected())
	login, _ := Lookup(PathLogin)
	assert.False(t, login.Protected())
	assert.Equal(t, "public", login.Access.String())
}

func TestGuardCheck(t *testing.T) {
	tests := []struct {
		name         string
		token        string
		path         string
		wantAllow    bool
		wantRedirect string
		wantState    session.State
	}{
		{"anonymous home", "", PathHome, false, PathLogin, session.StateAnonymous},
		{"anonymous profile", "", PathProfile, false, PathLogin, session.StateAnonymous},
		{"anonymous settings", "", PathSettings, false, PathLogin, session.StateAnonymous},
		{"anonymous login", "", PathLogin, true, "", session.StateAnonymous},
		{"anonymous register", "", PathRegister, true, "", session.StateAnonymous},
		{"authenticated home", "abc123", PathHome, true, "", session.StateAuthenticated},
		{"authenticated settings", "abc123", PathSettings, true, "", session.StateAuthenticated},
		{"authenticated login", "abc123", PathLogin, false, PathHome, session.StateAuthenticated},
		{"authenticated register", "abc123", PathRegister, false, PathHome, session.StateAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := credential.NewMemoryStore()
			if tt.token != "" {
				require.NoError(t, store.Set(tt.token))
			}
			g := NewGuard(session.New(store, log.Discard()))

			d := g.Check(tt.path)
			assert.Equal(t, tt.wantAllow, d.Allow)
			assert.Equal(t, tt.wantRedirect, d.Redirect)
			assert.Equal(t, tt.wantState, d.State)
			assert.False(t, d.NotFound)
		})
	}
}

func TestGuardUnknownPath(t *testing.T) {
	g := NewGuard(session.New(credential.NewMemoryStore(), log.Discard()))
	d := g.Check("/admin")
	assert.True(t, d.NotFound)
	assert.False(t, d.Allow)
}

func TestGuardReadsEveryTime(t *testing.T) {
	store := credential.NewMemoryStore()
	g := NewGuard(session.New(store, log.Discard()))

	assert.False(t, g.Check(PathHome).Allow)
	require.NoError(t, store.Set("abc123"))
	assert.True(t, g.Check(PathHome).Allow)
	require.NoError(t, store.Clear())
	assert.False(t, g.Check(PathHome).Allow)
}

func TestNavigateAnonymousToHomeNeverMountsProtectedView(t *testing.T) {
	n, _, rec := newNavigator(t, credential.NewMemoryStore())

	route, err := n.Navigate(PathHome)
	require.NoError(t, err)
	assert.Equal(t, PathLogin, route.Path)
	assert.Equal(t, []string{"mount /login"}, rec.Events())
	assert.Equal(t, session.StateAnonymous, n.State())
}

func TestNavigateAuthenticatedToLoginRedirectsHome(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("abc123"))
	n, _, rec := newNavigator(t, store)

	route, err := n.Navigate(PathLogin)
	require.NoError(t, err)
	assert.Equal(t, PathHome, route.Path)
	assert.Equal(t, []string{"mount /"}, rec.Events())
}

func TestNavigateClosesPreviousViewFirst(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("abc123"))
	n, _, rec := newNavigator(t, store)

	_, err := n.Navigate(PathHome)
	require.NoError(t, err)
	_, err = n.Navigate(PathProfile)
	require.NoError(t, err)

	assert.Equal(t, []string{"mount /", "close /", "mount /profile"}, rec.Events())
	assert.Equal(t, PathProfile, n.Current().Path)
}

func TestNavigateSameRouteKeepsView(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("abc123"))
	n, _, rec := newNavigator(t, store)

	_, _ = n.Navigate(PathHome)
	view := n.View()
	_, _ = n.Navigate(PathHome)

	assert.Same(t, view, n.View())
	assert.Equal(t, []string{"mount /"}, rec.Events())
}

func TestNavigateRetriesAfterFailedConstruction(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("abc123"))
	s := session.New(store, log.Discard())
	rec := &recorder{}
	fail := true
	factory := func(route Route) (View, error) {
		if fail {
			fail = false
			return nil, errors.New(errors.KindServer, errors.ErrCodeServer, "view unavailable")
		}
		return rec.factory(route)
	}
	n := NewNavigator(s, factory, log.Discard())

	_, err := n.Navigate(PathHome)
	require.Error(t, err)
	assert.Nil(t, n.View())

	route, err := n.Navigate(PathHome)
	require.NoError(t, err)
	assert.Equal(t, PathHome, route.Path)
	assert.NotNil(t, n.View())
	assert.Equal(t, []string{"mount /"}, rec.Events())
}

func TestNavigateUnknownPath(t *testing.T) {
	n, _, rec := newNavigator(t, credential.NewMemoryStore())

	_, err := n.Navigate("/admin")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))
	assert.Empty(t, rec.Events())
}

func TestLoginThenNavigate(t *testing.T) {
	n, s, _ := newNavigator(t, credential.NewMemoryStore())

	route, _ := n.Navigate(PathHome)
	assert.Equal(t, PathLogin, route.Path)

	require.NoError(t, s.Login("abc123"))
	route, err := n.Navigate(PathLogin)
	require.NoError(t, err)
	assert.Equal(t, PathHome, route.Path)
}

func TestLogout(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("abc123"))
	n, s, rec := newNavigator(t, store)

	_, _ = n.Navigate(PathSettings)
	route, err := n.Logout()
	require.NoError(t, err)

	assert.Equal(t, PathLogin, route.Path)
	assert.False(t, s.Authenticated())
	assert.Equal(t, []string{"mount /settings", "close /settings", "mount /login"}, rec.Events())
}

func TestCrossContextLogoutRedirects(t *testing.T) {
	backend := credential.NewMemoryBackend()
	tabA := session.New(backend.Attach(), log.Discard())
	require.NoError(t, tabA.Login("abc123"))

	n, _, rec := newNavigator(t, backend.Attach())
	_, err := n.Navigate(PathHome)
	require.NoError(t, err)

	var redirected []string
	unsubscribe := n.Watch(func(r Route) { redirected = append(redirected, r.Path) })
	defer unsubscribe()

	require.NoError(t, tabA.Logout())

	assert.Equal(t, []string{PathLogin}, redirected)
	assert.Equal(t, PathLogin, n.Current().Path)
	assert.Equal(t, []string{"mount /", "close /", "mount /login"}, rec.Events())
}

func TestCrossContextLoginLeavesLoginView(t *testing.T) {
	backend := credential.NewMemoryBackend()
	tabA := session.New(backend.Attach(), log.Discard())

	n, _, _ := newNavigator(t, backend.Attach())
	_, _ = n.Navigate(PathLogin)

	var redirected []string
	defer n.Watch(func(r Route) { redirected = append(redirected, r.Path) })()

	require.NoError(t, tabA.Login("abc123"))
	assert.Equal(t, []string{PathHome}, redirected)
}

func TestRecheckWithoutMountIsNoop(t *testing.T) {
	n, _, rec := newNavigator(t, credential.NewMemoryStore())

	_, moved, err := n.Recheck()
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, rec.Events())
}

func TestRecheckStillAllowed(t *testing.T) {
	store := credential.NewMemoryStore()
	require.NoError(t, store.Set("abc123"))
	n, _, rec := newNavigator(t, store)
	_, _ = n.Navigate(PathHome)

	route, moved, err := n.Recheck()
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, PathHome, route.Path)
	assert.Equal(t, []string{"mount /"}, rec.Events())
}

func TestClose(t *testing.T) {
	n, _, rec := newNavigator(t, credential.NewMemoryStore())
	_, _ = n.Navigate(PathLogin)

	n.Close()
	assert.Nil(t, n.View())
	assert.Equal(t, []string{"mount /login", "close /login"}, rec.Events())
}

func TestCrossProcessLogoutWithFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	other, err := credential.OpenFileStore(path, log.Discard())
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Set("abc123"))

	mine, err := credential.OpenFileStore(path, log.Discard())
	require.NoError(t, err)
	defer mine.Close()

	n, _, _ := newNavigator(t, mine)
	_, err = n.Navigate(PathHome)
	require.NoError(t, err)

	redirected := make(chan string, 1)
	defer n.Watch(func(r Route) {
		select {
		case redirected <- r.Path:
		default:
		}
	})()

	require.NoError(t, other.Clear())

	select {
	case p := <-redirected:
		assert.Equal(t, PathLogin, p)
	case <-time.After(5 * time.Second):
		t.Fatal("expected redirect after logout in another process")
	}
}
