package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/veriaccess/internal/logtail"
)

const logTailLines = 500

// logState holds the client log view state.
type logState struct {
	entries []logtail.Entry
	follow  bool
	err     error
}

type logLinesMsg struct {
	entries []logtail.Entry
	err     error
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, logTailLines)
		if err != nil {
			return logLinesMsg{err: err}
		}
		return logLinesMsg{entries: logtail.ParseLines(lines)}
	}
}

func (m *Model) layoutLogs() {
	m.logViewport.Width = max(m.width-2, 10)
	m.logViewport.Height = max(m.height-chromeLines-2, 3)
	m.refreshLogContent()
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.entries = msg.entries
	}
	m.refreshLogContent()
}

func (m *Model) refreshLogContent() {
	styles := m.theme.Styles()
	if len(m.logState.entries) == 0 {
		text := "No log entries yet"
		if m.logPath == "" {
			text = "Logging to file is disabled"
		}
		m.logViewport.SetContent(styles.MutedText.Render(text))
		return
	}

	lines := make([]string, 0, len(m.logState.entries))
	for _, e := range m.logState.entries {
		lines = append(lines, m.renderLogEntry(e))
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogEntry colors the level and dims the extra fields.
func (m Model) renderLogEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	if !e.Structured() {
		return styles.Text.Render(e.Raw)
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
		b.WriteByte(' ')
	}
	b.WriteString(m.levelStyle(e.Level).Render(padLevel(e.Level)))
	b.WriteByte(' ')
	b.WriteString(styles.Text.Render(e.Message))
	for _, f := range e.Fields {
		b.WriteByte(' ')
		b.WriteString(styles.MutedText.Render(f.Key + "="))
		b.WriteString(styles.InfoText.Render(f.Value))
	}
	return b.String()
}

func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch level {
	case "error", "fatal", "panic":
		return styles.DangerText
	case "warning", "warn":
		return styles.WarningText.Bold(true)
	case "debug", "trace":
		return styles.InfoText
	default:
		return styles.SuccessText
	}
}

func padLevel(level string) string {
	label := strings.ToUpper(level)
	if label == "WARNING" {
		label = "WARN"
	}
	if len(label) < 5 {
		label += strings.Repeat(" ", 5-len(label))
	}
	return label
}

// handleLogsKey processes keys for the log view. Scrolling up pauses follow.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			return m, readLogsCmd(m.logPath)
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	if !m.logViewport.AtBottom() {
		m.logState.follow = false
	}
	return m, cmd
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Client log")
	if m.logPath != "" {
		title += " " + styles.FaintText.Render(truncate(m.logPath, max(m.width-30, 10)))
	}
	if m.logState.follow {
		title += " " + styles.SuccessText.Render("following")
	}
	if m.logState.err != nil {
		title += " " + styles.DangerText.Render(m.logState.err.Error())
	}
	return styles.FocusPanel.Width(m.width - 2).Render(title + "\n" + m.logViewport.View())
}
