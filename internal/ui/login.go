package ui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/prefs"
	"github.com/five82/veriaccess/internal/state"
	"github.com/five82/veriaccess/internal/veriaccess"
)

const loginFormWidth = 44

// loginForm holds the username and password inputs.
type loginForm struct {
	username textinput.Model
	password textinput.Model
	focus    int // 0 = username, 1 = password
	err      string
	busy     bool
}

func newLoginForm(username string) loginForm {
	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = "User      "
	user.CharLimit = 150
	user.Width = loginFormWidth - 14
	user.SetValue(strings.TrimSpace(username))

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "Password  "
	pass.CharLimit = 128
	pass.Width = loginFormWidth - 14
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	f := loginForm{username: user, password: pass}
	if user.Value() != "" {
		f.focus = 1
	}
	f.applyFocus()
	return f
}

func (f *loginForm) applyFocus() {
	if f.focus == 0 {
		f.username.Focus()
		f.password.Blur()
		return
	}
	f.username.Blur()
	f.password.Focus()
}

func (f *loginForm) setWidth(width int) {
	w := loginFormWidth - 14
	if width > 0 && width < loginFormWidth+4 {
		w = max(width-18, 8)
	}
	f.username.Width = w
	f.password.Width = w
}

// reset clears the password and any error, keeping the username.
func (f *loginForm) reset() {
	f.password.SetValue("")
	f.err = ""
	f.busy = false
	f.focus = 0
	if strings.TrimSpace(f.username.Value()) != "" {
		f.focus = 1
	}
	f.applyFocus()
}

func (f loginForm) blink() tea.Cmd {
	return textinput.Blink
}

func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

// handleLoginKey processes keys while the login form is showing.
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.login.focus = 1 - m.login.focus
		m.login.applyFocus()
		return m, nil
	case "esc":
		m.login.err = ""
		return m, nil
	case "enter":
		if m.login.focus == 0 {
			m.login.focus = 1
			m.login.applyFocus()
			return m, nil
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.login.busy || m.backend == nil {
		return m, nil
	}
	username := strings.TrimSpace(m.login.username.Value())
	password := m.login.password.Value()
	if username == "" || password == "" {
		m.login.err = veriaccess.ErrMissingCredentials.Error()
		return m, nil
	}
	m.login.busy = true
	m.login.err = ""
	return m, loginCmd(m.ctx, m.backend, username, password)
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.login.busy = false
	if msg.err != nil {
		m.login.password.SetValue("")
		if errors.Is(msg.err, veriaccess.ErrMissingCredentials) {
			m.login.err = msg.err.Error()
		} else {
			m.login.err = api.Message(msg.err)
		}
		m.log.WithError(msg.err).WithField("username", msg.username).Warn("login failed")
		return m, nil
	}

	m.log.WithField("username", msg.username).Info("signed in")
	m.login.password.SetValue("")
	m.login.err = ""
	m.currentView = ViewDashboard
	m.signedInAt = time.Now()
	if m.store != nil {
		m.store.Reset()
	}
	m.snapshot = state.Snapshot{}
	m.updateTables()
	if m.refresher != nil {
		m.refresher.Kick()
	}
	if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.LastUsername = msg.username }); err != nil {
		m.log.WithError(err).Warn("save last username")
	}

	name := msg.username
	if msg.user != nil {
		name = msg.user.DisplayName()
	}
	m.setFlash("Signed in as "+name, false)
	return m, nil
}

// renderLogin renders the centered sign-in box.
func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("veriaccess"))
	b.WriteString("\n")
	if m.apiURL != "" {
		b.WriteString(styles.FaintText.Render(truncate(m.apiURL, loginFormWidth-2)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.login.username.View())
	b.WriteString("\n")
	b.WriteString(m.login.password.View())
	b.WriteString("\n\n")

	switch {
	case m.login.busy:
		b.WriteString(styles.InfoText.Render("Signing in..."))
	case m.login.err != "":
		b.WriteString(styles.DangerText.Render(lipgloss.NewStyle().Width(loginFormWidth - 4).Render(m.login.err)))
	default:
		b.WriteString(styles.MutedText.Render("enter to sign in • tab to switch • ctrl+c to quit"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(loginFormWidth).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
