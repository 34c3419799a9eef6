package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/prefs"
	"github.com/five82/veriaccess/internal/session"
	"github.com/five82/veriaccess/internal/state"
	"github.com/five82/veriaccess/internal/veriaccess"
)

// View represents the current active view.
type View int

const (
	ViewLogin View = iota
	ViewDashboard
	ViewLogs
)

type pane int

const (
	paneVisitors pane = iota
	paneAccess
)

const (
	actionTimeout = 15 * time.Second
	flashDuration = 5 * time.Second
)

// Backend is the part of the service client the UI calls directly. Reads go
// through the poller and the state store instead.
type Backend interface {
	Login(ctx context.Context, username, password string) (*veriaccess.LoginResponse, error)
	Logout(ctx context.Context) error
	UpdateVisitorStatus(ctx context.Context, id int64, status string) (*veriaccess.Visitor, error)
	MarkRead(ctx context.Context, id int64) (*veriaccess.Notification, error)
}

// Refresher requests an immediate dashboard poll.
type Refresher interface {
	Kick()
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Backend   Backend
	Store     *state.Store
	Session   *session.Store
	Refresher Refresher
	Log       logrus.FieldLogger
	APIURL    string
	LogPath   string
	PrefsPath string
	ThemeName string
	Username  string // pre-fills the login form
	PollTick  time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	backend   Backend
	store     *state.Store
	session   *session.Store
	refresher Refresher
	log       logrus.FieldLogger
	apiURL    string
	logPath   string
	prefsPath string
	pollTick  time.Duration

	// UI state
	theme       Theme
	keys        keyMap
	help        help.Model
	currentView View
	focus       pane
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot   state.Snapshot
	signedInAt time.Time

	// Login
	login loginForm

	// Dashboard
	visitors table.Model
	access   table.Model

	// Logs
	logViewport viewport.Model
	logState    logState

	// Transient status line
	flash    string
	flashErr bool
	flashAt  time.Time
}

// New creates the root model. It opens on the dashboard when the session
// store already holds an access token and on the login form otherwise.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		backend:   opts.Backend,
		store:     opts.Store,
		session:   opts.Session,
		refresher: opts.Refresher,
		log:       log.WithField("component", "ui"),
		apiURL:    opts.APIURL,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		theme:     GetTheme(themeName),
		keys:      defaultKeyMap(),
		help:      help.New(),
		login:     newLoginForm(opts.Username),
		logState:  logState{follow: true},
	}
	m.visitors = m.newTable(visitorColumns(80), true)
	m.access = m.newTable(accessColumns(60), false)
	m.logViewport = viewport.New(80, 20)

	if m.signedIn() {
		m.currentView = ViewDashboard
		m.signedInAt = time.Now()
	} else {
		m.currentView = ViewLogin
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogin {
		cmds = append(cmds, m.login.blink())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		return m.applySnapshot(state.Snapshot(msg))

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case logoutMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("clear session on logout")
		}
		if m.store != nil {
			m.store.Reset()
		}
		m.snapshot = state.Snapshot{}
		m.updateTables()
		return m, m.toLogin("Signed out.")

	case actionMsg:
		return m.handleAction(msg)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	if m.currentView == ViewLogin {
		var cmd tea.Cmd
		m.login, cmd = m.login.update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.currentView == ViewLogin {
		return m.renderLogin()
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var content string
	switch m.currentView {
	case ViewLogs:
		content = m.renderLogs()
	default:
		content = m.renderDashboard()
	}
	return m.renderHeader() + "\n" + m.renderCommandBar() + "\n" + content + "\n" + m.renderStatusLine()
}

// CurrentView reports which view is showing.
func (m Model) CurrentView() View { return m.currentView }

func (m Model) signedIn() bool {
	if m.session == nil {
		return false
	}
	_, ok := m.session.AccessToken()
	return ok
}

// handleKey routes keyboard input. The login form sees every key except
// ctrl+c so that letters bound elsewhere can be typed.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.currentView == ViewLogin {
		return m.handleLoginKey(msg)
	}
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.restyleTables()
		name := m.theme.Name
		if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			m.log.WithError(err).Warn("save theme preference")
		}
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		return m, logoutCmd(m.ctx, m.backend)
	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, readLogsCmd(m.logPath)
	case key.Matches(msg, m.keys.ViewDashboard), key.Matches(msg, m.keys.Back):
		m.currentView = ViewDashboard
		return m, nil
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleDashboardKey(msg)
	}
}

// handleTick processes the UI refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	if m.flash != "" && time.Since(m.flashAt) > flashDuration {
		m.flash = ""
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) applySnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	m.snapshot = snap
	m.updateTables()

	if m.currentView == ViewLogin {
		return m, nil
	}
	// A snapshot taken before the latest sign-in may still carry the
	// previous session's expiry.
	if snap.SessionExpired && !snap.LastUpdated.Before(m.signedInAt) {
		return m, m.toLogin(api.Message(snap.LastError))
	}
	if !m.signedIn() && m.session != nil {
		return m, m.toLogin("Session ended, sign in again.")
	}
	return m, nil
}

func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.WithError(msg.err).Warn(msg.text)
		if errors.Is(msg.err, api.ErrSessionExpired) {
			return m, m.toLogin(api.Message(msg.err))
		}
		m.setFlash(fmt.Sprintf("%s: %s", msg.text, api.Message(msg.err)), true)
		return m, nil
	}
	m.setFlash(msg.text, false)
	if m.refresher != nil {
		m.refresher.Kick()
	}
	return m, nil
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	m.flashAt = time.Now()
}

// toLogin switches to the login form and shows notice above it.
func (m *Model) toLogin(notice string) tea.Cmd {
	m.currentView = ViewLogin
	m.showHelp = false
	m.login.reset()
	m.login.err = notice
	return m.login.blink()
}

// resize recomputes component sizes after a window change.
func (m *Model) resize() {
	m.help.Width = m.width
	m.layoutTables()
	m.layoutLogs()
	m.login.setWidth(m.width)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type loginResultMsg struct {
	username string
	user     *session.User
	err      error
}

type logoutMsg struct{ err error }

type actionMsg struct {
	text string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func loginCmd(ctx context.Context, backend Backend, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		resp, err := backend.Login(ctx, username, password)
		if err != nil {
			return loginResultMsg{username: username, err: err}
		}
		return loginResultMsg{username: username, user: resp.User}
	}
}

func logoutCmd(ctx context.Context, backend Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		return logoutMsg{err: backend.Logout(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a data store")
	}
	if opts.Backend == nil {
		return fmt.Errorf("ui requires a backend")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
