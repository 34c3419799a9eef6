package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/veriaccess/internal/state"
	"github.com/five82/veriaccess/internal/veriaccess"
)

const (
	notificationRows = 4
	chromeLines      = 3 // header, command bar, status line
)

func (m Model) newTable(cols []table.Column, focused bool) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(focused),
		table.WithHeight(10),
	)
	t.SetStyles(m.tableStyles())
	return t
}

func (m Model) tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(m.theme.Muted)).
		Bold(true)
	s.Cell = s.Cell.Foreground(lipgloss.Color(m.theme.Text))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(m.theme.SelectionText)).
		Background(lipgloss.Color(m.theme.SelectionBg)).
		Bold(false)
	return s
}

func (m *Model) restyleTables() {
	styles := m.tableStyles()
	m.visitors.SetStyles(styles)
	m.access.SetStyles(styles)
}

// visitorColumns sizes the visitor table for an inner width. The name
// column takes whatever the fixed columns leave.
func visitorColumns(width int) []table.Column {
	fixed := []table.Column{
		{Title: "ID number", Width: 12},
		{Title: "Company", Width: 14},
		{Title: "Status", Width: 9},
		{Title: "Entry", Width: 11},
	}
	nameWidth := width - 2
	for _, c := range fixed {
		nameWidth -= c.Width + 2
	}
	return append([]table.Column{{Title: "Visitor", Width: max(nameWidth, 10)}}, fixed...)
}

func accessColumns(width int) []table.Column {
	fixed := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Point", Width: 14},
		{Title: "Result", Width: 8},
	}
	whoWidth := width - 2
	for _, c := range fixed {
		whoWidth -= c.Width + 2
	}
	cols := []table.Column{fixed[0], {Title: "Who", Width: max(whoWidth, 8)}}
	return append(cols, fixed[1:]...)
}

// paneWidths splits the body between the visitor and access log panels.
func (m Model) paneWidths() (left, right int) {
	left = m.width * 3 / 5
	return left, m.width - left
}

func (m Model) bodyHeight() int {
	h := m.height - chromeLines - (notificationRows + 2)
	return max(h, 5)
}

func (m *Model) layoutTables() {
	left, right := m.paneWidths()
	height := m.bodyHeight() - 2 // panel borders

	m.visitors.SetColumns(visitorColumns(left - 2))
	m.visitors.SetWidth(left - 2)
	m.visitors.SetHeight(height)

	m.access.SetColumns(accessColumns(right - 2))
	m.access.SetWidth(right - 2)
	m.access.SetHeight(height)
}

// updateTables refreshes table rows from the snapshot, keeping the cursor
// in range.
func (m *Model) updateTables() {
	visitorRows := make([]table.Row, 0, len(m.snapshot.Visitors))
	for _, v := range m.snapshot.Visitors {
		visitorRows = append(visitorRows, table.Row{
			v.FullName(),
			v.IDNumber,
			v.Company,
			v.Status,
			shortTime(v.EntryDate),
		})
	}
	m.visitors.SetRows(visitorRows)
	clampCursor(&m.visitors, len(visitorRows))

	accessRows := make([]table.Row, 0, len(m.snapshot.RecentLogs))
	for _, l := range m.snapshot.RecentLogs {
		when := ""
		if ts := l.ParsedTimestamp(); !ts.IsZero() {
			when = ts.Local().Format("15:04:05")
		}
		where := l.Where()
		if where == "" {
			where = fmt.Sprintf("#%d", l.AccessPoint)
		}
		accessRows = append(accessRows, table.Row{when, l.Who(), where, l.Status})
	}
	m.access.SetRows(accessRows)
	clampCursor(&m.access, len(accessRows))
}

func clampCursor(t *table.Model, rows int) {
	switch {
	case rows == 0:
		t.SetCursor(0)
	case t.Cursor() >= rows:
		t.SetCursor(rows - 1)
	case t.Cursor() < 0:
		t.SetCursor(0)
	}
}

// shortTime renders an RFC 3339 timestamp as "01-02 15:04".
func shortTime(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.Local().Format("01-02 15:04")
		}
	}
	return value
}

func (m Model) selectedVisitor() *veriaccess.Visitor {
	idx := m.visitors.Cursor()
	if idx < 0 || idx >= len(m.snapshot.Visitors) {
		return nil
	}
	v := m.snapshot.Visitors[idx]
	return &v
}

// handleDashboardKey processes keys for the dashboard view.
func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == paneVisitors {
			m.focus = paneAccess
			m.visitors.Blur()
			m.access.Focus()
		} else {
			m.focus = paneVisitors
			m.access.Blur()
			m.visitors.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.Approve):
		return m.visitorAction(veriaccess.VisitorApproved)
	case key.Matches(msg, m.keys.Deny):
		return m.visitorAction(veriaccess.VisitorDenied)
	case key.Matches(msg, m.keys.MarkInside):
		return m.visitorAction(veriaccess.VisitorInside)
	case key.Matches(msg, m.keys.MarkOut):
		return m.visitorAction(veriaccess.VisitorOutside)
	case key.Matches(msg, m.keys.MarkRead):
		return m.markAllRead()
	}

	var cmd tea.Cmd
	if m.focus == paneVisitors {
		m.visitors, cmd = m.visitors.Update(msg)
	} else {
		m.access, cmd = m.access.Update(msg)
	}
	return m, cmd
}

func (m Model) visitorAction(status string) (tea.Model, tea.Cmd) {
	v := m.selectedVisitor()
	if v == nil || m.backend == nil {
		return m, nil
	}
	if v.Status == status {
		m.setFlash(fmt.Sprintf("%s is already %s", v.FullName(), status), false)
		return m, nil
	}
	return m, visitorStatusCmd(m.ctx, m.backend, *v, status)
}

func (m Model) markAllRead() (tea.Model, tea.Cmd) {
	var ids []int64
	for _, n := range m.snapshot.Notifications {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 || m.backend == nil {
		return m, nil
	}
	return m, markReadCmd(m.ctx, m.backend, m.store, ids)
}

func visitorStatusCmd(ctx context.Context, backend Backend, v veriaccess.Visitor, status string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		if _, err := backend.UpdateVisitorStatus(ctx, v.ID, status); err != nil {
			return actionMsg{text: "update visitor " + v.FullName(), err: err}
		}
		return actionMsg{text: fmt.Sprintf("%s marked %s", v.FullName(), status)}
	}
}

// markReadCmd marks each id read, stopping at the first failure. Successes
// are reflected in the store right away.
func markReadCmd(ctx context.Context, backend Backend, store *state.Store, ids []int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		for _, id := range ids {
			if _, err := backend.MarkRead(ctx, id); err != nil {
				return actionMsg{text: "mark notification read", err: err}
			}
			if store != nil {
				store.MarkRead(id)
			}
		}
		return actionMsg{text: fmt.Sprintf("%d notification(s) marked read", len(ids))}
	}
}

// renderDashboard renders the visitor and access panels above the
// notification strip.
func (m Model) renderDashboard() string {
	styles := m.theme.Styles()
	left, right := m.paneWidths()

	leftPanel, rightPanel := styles.Panel, styles.Panel
	if m.focus == paneVisitors {
		leftPanel = styles.FocusPanel
	} else {
		rightPanel = styles.FocusPanel
	}

	visitors := leftPanel.Width(left - 2).Render(
		m.panelTitle("Visitors", len(m.snapshot.Visitors)) + "\n" + m.visitorsBody(),
	)
	access := rightPanel.Width(right - 2).Render(
		m.panelTitle("Recent access", len(m.snapshot.RecentLogs)) + "\n" + m.accessBody(),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, visitors, access)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderNotifications())
}

func (m Model) panelTitle(title string, count int) string {
	styles := m.theme.Styles()
	return styles.AccentText.Bold(true).Render(title) + " " + styles.MutedText.Render(fmt.Sprintf("(%d)", count))
}

func (m Model) visitorsBody() string {
	if len(m.snapshot.Visitors) == 0 {
		return m.theme.Styles().MutedText.Render(m.emptyText("No visitors registered"))
	}
	return m.visitors.View()
}

func (m Model) accessBody() string {
	if len(m.snapshot.RecentLogs) == 0 {
		return m.theme.Styles().MutedText.Render(m.emptyText("No recent access events"))
	}
	return m.access.View()
}

func (m Model) emptyText(text string) string {
	if m.snapshot.LastUpdated.IsZero() {
		return "Loading..."
	}
	return text
}

// renderNotifications lists unread notifications first, newest first.
func (m Model) renderNotifications() string {
	styles := m.theme.Styles()
	notes := m.snapshot.Notifications

	var unread, read []veriaccess.Notification
	for _, n := range notes {
		if n.Read {
			read = append(read, n)
		} else {
			unread = append(unread, n)
		}
	}
	ordered := append(unread, read...)

	width := max(m.width-4, 10)
	lines := make([]string, 0, notificationRows)
	for _, n := range ordered {
		if len(lines) == notificationRows {
			break
		}
		marker := styles.FaintText.Render("○")
		title := styles.MutedText.Render(n.Title)
		if !n.Read {
			marker = styles.WarningText.Render("●")
			title = styles.Text.Bold(true).Render(n.Title)
		}
		when := ""
		if ts := n.ParsedCreatedAt(); !ts.IsZero() {
			when = styles.FaintText.Render(ts.Local().Format("01-02 15:04")) + " "
		}
		msg := truncate(strings.ReplaceAll(n.Message, "\n", " "), max(width-lipgloss.Width(n.Title)-18, 10))
		lines = append(lines, marker+" "+when+title+" "+styles.MutedText.Render(msg))
	}
	if len(lines) == 0 {
		lines = append(lines, styles.MutedText.Render(m.emptyText("No notifications")))
	}
	for len(lines) < notificationRows {
		lines = append(lines, "")
	}

	title := m.panelTitle("Notifications", m.snapshot.Unread())
	return styles.Panel.Width(m.width - 2).Render(title + "\n" + strings.Join(lines[:notificationRows-1], "\n"))
}
