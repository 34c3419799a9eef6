package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/veriaccess/internal/api"
)

// renderHeader renders the status bar: who is signed in, occupancy, counts
// and poll health.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100

	parts := []string{bg.Render("veriaccess", styles.Logo)}

	if m.session != nil {
		if user, ok := m.session.User(); ok {
			label := user.DisplayName()
			if user.IsAdmin() {
				label += " (admin)"
			}
			parts = append(parts, bg.Render(label, styles.Text))
		}
	}

	snap := m.snapshot
	if snap.HasOccupancy {
		occ := snap.Occupancy
		style := styles.SuccessText
		switch pct := occ.Percent(); {
		case pct >= 90:
			style = styles.DangerText
		case pct >= 75:
			style = styles.WarningText
		}
		parts = append(parts,
			bg.Render("Occupancy:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d/%d", occ.TotalCount, occ.MaxCapacity), style))
		if !compact {
			parts = append(parts,
				bg.Render("Residents:", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprintf("%d", occ.ResidentsCount), styles.Text))
		}
	}

	parts = append(parts,
		bg.Render("Inside:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", snap.VisitorsInside()), styles.Text))

	unreadStyle := styles.MutedText
	if snap.Unread() > 0 {
		unreadStyle = styles.WarningText
	}
	parts = append(parts,
		bg.Render("Unread:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", snap.Unread()), unreadStyle))

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if snap.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText))
	}
	if snap.LastError != nil {
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts, bg.Render(truncate(api.Message(snap.LastError), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, 2))
}

// formatTimestamp formats the last update time, flagging stale data.
func (m Model) formatTimestamp() string {
	last := m.snapshot.LastUpdated
	if last.IsZero() {
		return ""
	}
	text := last.Format("15:04:05")
	if since := time.Since(last); since > 3*m.pollTick && since > 10*time.Second {
		text += fmt.Sprintf(" (%s ago)", since.Truncate(time.Second))
	}
	return text
}

// renderCommandBar shows the short key help and the active theme.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	h := m.help
	h.ShowAll = false
	themeLabel := styles.AccentText.Render("T") + styles.FaintText.Render(":"+m.theme.Name)
	h.Width = max(m.width-lipgloss.Width(themeLabel)-4, 10)
	return lipgloss.NewStyle().Padding(0, 1).Width(m.width).Render(h.View(m.keys) + "  " + themeLabel)
}

// renderStatusLine shows the last action result.
func (m Model) renderStatusLine() string {
	if m.flash == "" {
		return ""
	}
	styles := m.theme.Styles()
	style := styles.SuccessText
	if m.flashErr {
		style = styles.DangerText
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(style.Render(truncate(m.flash, max(m.width-2, 10))))
}
