package ui

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/logging"
	"github.com/five82/veriaccess/internal/prefs"
	"github.com/five82/veriaccess/internal/session"
	"github.com/five82/veriaccess/internal/state"
	"github.com/five82/veriaccess/internal/veriaccess"
)

type fakeBackend struct {
	mu       sync.Mutex
	session  *session.Store
	loginErr error
	statuses map[int64]string
	read     []int64
	logouts  int
}

func (f *fakeBackend) Login(_ context.Context, username, password string) (*veriaccess.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	user := &session.User{Username: username, FirstName: "Gate", LastName: "Guard"}
	if err := f.session.SetTokens("access-"+password, "refresh"); err != nil {
		return nil, err
	}
	return &veriaccess.LoginResponse{Access: "a", Refresh: "r", User: user}, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return f.session.Clear()
}

func (f *fakeBackend) UpdateVisitorStatus(_ context.Context, id int64, status string) (*veriaccess.Visitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statuses == nil {
		f.statuses = make(map[int64]string)
	}
	f.statuses[id] = status
	return &veriaccess.Visitor{ID: id, Status: status}, nil
}

func (f *fakeBackend) MarkRead(_ context.Context, id int64) (*veriaccess.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, id)
	return &veriaccess.Notification{ID: id, Read: true}, nil
}

type kicker struct{ n int }

func (k *kicker) Kick() { k.n++ }

type fixture struct {
	model     Model
	backend   *fakeBackend
	store     *state.Store
	session   *session.Store
	refresher *kicker
	prefsPath string
}

func newFixture(t *testing.T, signedIn bool) *fixture {
	t.Helper()
	sess := session.NewStore(session.NewMemoryStorage())
	if signedIn {
		require.NoError(t, sess.SetTokens("access", "refresh"))
	}
	f := &fixture{
		backend:   &fakeBackend{session: sess},
		store:     &state.Store{},
		session:   sess,
		refresher: &kicker{},
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	f.model = New(Options{
		Backend:   f.backend,
		Store:     f.store,
		Session:   sess,
		Refresher: f.refresher,
		Log:       logging.Discard(),
		PrefsPath: f.prefsPath,
		APIURL:    "http://localhost:8000/api",
	})
	f.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	return f
}

// send feeds msg to the model and returns the resulting command.
func (f *fixture) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	f.model = model
	return cmd
}

func (f *fixture) typeText(t *testing.T, text string) {
	t.Helper()
	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func sampleSnapshot(store *state.Store) {
	store.Update(&state.Dashboard{
		Occupancy: &veriaccess.BuildingOccupancy{TotalCount: 30, MaxCapacity: 40, ResidentsCount: 25},
		Visitors: []veriaccess.Visitor{
			{ID: 11, FirstName: "Ana", LastName: "Ruiz", Status: veriaccess.VisitorPending},
			{ID: 12, FirstName: "Luis", LastName: "Vega", Status: veriaccess.VisitorInside},
		},
		RecentLogs: []veriaccess.AccessLog{{ID: 1, Status: "granted", AccessPoint: 3}},
		Notifications: []veriaccess.Notification{
			{ID: 7, Title: "Delivery"},
			{ID: 8, Title: "Drill", Read: true},
		},
	}, nil)
}

func TestNew_StartsOnLoginWithoutSession(t *testing.T) {
	f := newFixture(t, false)
	require.Equal(t, ViewLogin, f.model.CurrentView())
	require.Contains(t, f.model.View(), "veriaccess")
}

func TestNew_StartsOnDashboardWithSession(t *testing.T) {
	f := newFixture(t, true)
	require.Equal(t, ViewDashboard, f.model.CurrentView())
}

func TestLogin_SubmitsAndSwitchesToDashboard(t *testing.T) {
	f := newFixture(t, false)

	f.typeText(t, "guard1")
	// q must reach the input rather than quit.
	f.typeText(t, "q")
	require.Nil(t, f.send(t, tea.KeyMsg{Type: tea.KeyEnter}), "enter on username moves focus")
	f.typeText(t, "secret")

	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, f.model.login.busy)

	msg := cmd()
	result, ok := msg.(loginResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)
	require.Equal(t, "guard1q", result.username)

	f.send(t, msg)
	require.Equal(t, ViewDashboard, f.model.CurrentView())
	require.Equal(t, 1, f.refresher.n)
	require.Contains(t, f.model.flash, "Gate Guard")

	token, ok := f.session.AccessToken()
	require.True(t, ok)
	require.Equal(t, "access-secret", token)

	saved, err := prefs.Load(f.prefsPath)
	require.NoError(t, err)
	require.Equal(t, "guard1q", saved.LastUsername)
}

func TestLogin_EmptyFieldsRejectedLocally(t *testing.T) {
	f := newFixture(t, false)
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Equal(t, veriaccess.ErrMissingCredentials.Error(), f.model.login.err)
}

func TestLogin_ShowsNormalizedError(t *testing.T) {
	f := newFixture(t, false)
	f.backend.loginErr = &api.ResponseError{
		Method:     http.MethodPost,
		Path:       api.LoginPath,
		StatusCode: http.StatusUnauthorized,
		Body:       []byte(`{"detail":"No active account found with the given credentials"}`),
	}

	f.typeText(t, "guard1")
	f.send(t, tea.KeyMsg{Type: tea.KeyTab})
	f.typeText(t, "wrong")
	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	f.send(t, cmd())

	require.Equal(t, ViewLogin, f.model.CurrentView())
	require.Equal(t, "No active account found with the given credentials", f.model.login.err)
	require.Empty(t, f.model.login.password.Value())
	require.False(t, f.model.login.busy)
}

func TestSnapshot_SessionExpiredReturnsToLogin(t *testing.T) {
	f := newFixture(t, true)
	// Expiry from a poll that finished after sign-in.
	time.Sleep(time.Millisecond)
	f.store.Update(nil, fmt.Errorf("fetch visitors: %w", api.ErrSessionExpired))
	require.NoError(t, f.session.Clear())

	f.send(t, snapshotMsg(f.store.Snapshot()))

	require.Equal(t, ViewLogin, f.model.CurrentView())
	require.Equal(t, "session expired, sign in again", f.model.login.err)
}

func TestDashboard_VisitorActions(t *testing.T) {
	f := newFixture(t, true)
	sampleSnapshot(f.store)
	f.send(t, snapshotMsg(f.store.Snapshot()))

	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)
	f.send(t, cmd())
	require.Equal(t, veriaccess.VisitorApproved, f.backend.statuses[11])
	require.Equal(t, 1, f.refresher.n)
	require.False(t, f.model.flashErr)

	// Second row, already inside.
	f.send(t, tea.KeyMsg{Type: tea.KeyDown})
	cmd = f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	require.Nil(t, cmd)
	require.Contains(t, f.model.flash, "already inside")

	cmd = f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	f.send(t, cmd())
	require.Equal(t, veriaccess.VisitorOutside, f.backend.statuses[12])
}

func TestDashboard_MarkAllRead(t *testing.T) {
	f := newFixture(t, true)
	sampleSnapshot(f.store)
	f.send(t, snapshotMsg(f.store.Snapshot()))

	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	f.send(t, cmd())

	require.Equal(t, []int64{7}, f.backend.read)
	require.Zero(t, f.store.Snapshot().Unread())
}

func TestLogout_ClearsAndShowsLogin(t *testing.T) {
	f := newFixture(t, true)
	sampleSnapshot(f.store)

	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	require.NotNil(t, cmd)
	f.send(t, cmd())

	require.Equal(t, ViewLogin, f.model.CurrentView())
	require.Equal(t, 1, f.backend.logouts)
	require.False(t, f.store.Snapshot().HasOccupancy)
	_, ok := f.session.AccessToken()
	require.False(t, ok)
}

func TestCycleTheme_PersistsPreference(t *testing.T) {
	f := newFixture(t, true)
	require.Equal(t, "Dracula", f.model.theme.Name)

	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("T")})
	require.Equal(t, "Slate", f.model.theme.Name)

	saved, err := prefs.Load(f.prefsPath)
	require.NoError(t, err)
	require.Equal(t, "Slate", saved.Theme)
}

func TestHelpOverlay(t *testing.T) {
	f := newFixture(t, true)
	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	require.True(t, f.model.showHelp)
	require.Contains(t, f.model.View(), "Keyboard Shortcuts")

	// Any key closes help without acting.
	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	require.Nil(t, cmd)
	require.False(t, f.model.showHelp)
}

func TestDashboardView_RendersData(t *testing.T) {
	f := newFixture(t, true)
	sampleSnapshot(f.store)
	f.send(t, snapshotMsg(f.store.Snapshot()))

	out := f.model.View()
	for _, want := range []string{"Occupancy:", "30/40", "Ana Ruiz", "Delivery", "Recent access"} {
		require.True(t, strings.Contains(out, want), "view missing %q", want)
	}
}

func TestLogsView_ReadsClientLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veriaccess.log")
	logger, closer, err := logging.New(logging.Options{Path: path, Level: "info"})
	require.NoError(t, err)
	logger.WithField("path", "/access/visitors/").Warn("serving fallback response")
	require.NoError(t, closer.Close())

	f := newFixture(t, true)
	f.model.logPath = path

	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	require.Equal(t, ViewLogs, f.model.CurrentView())
	f.send(t, cmd())

	require.Len(t, f.model.logState.entries, 1)
	require.Contains(t, f.model.View(), "serving fallback response")

	f.send(t, tea.KeyMsg{Type: tea.KeySpace})
	require.False(t, f.model.logState.follow)

	f.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, ViewDashboard, f.model.CurrentView())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "", truncate("abc", 0))
	require.Equal(t, "abc", truncate("abc", 3))
	require.Equal(t, "ab…", truncate("abcd", 3))
	require.Equal(t, "…", truncate("abcd", 1))
}

func TestThemeLookups(t *testing.T) {
	th := GetTheme("Slate")
	require.Equal(t, th.StatusColors["denied"], th.StatusColor("  Denied "))
	require.Equal(t, th.Muted, th.StatusColor("unknown"))
	require.Equal(t, "Dracula", GetTheme("missing").Name)
	require.Equal(t, "Dracula", NextTheme("Slate"))
	require.Equal(t, "Dracula", NextTheme("unknown"))
	require.Equal(t, []string{"Dracula", "Slate"}, ThemeNames())
}
