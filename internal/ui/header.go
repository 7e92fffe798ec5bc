package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/ticklist/internal/task"
)

var filterTabs = []struct {
	filter task.Filter
	label  string
}{
	{task.FilterAll, "All Tasks"},
	{task.FilterPending, "Pending"},
	{task.FilterCompleted, "Completed"},
	{task.FilterOverdue, "Overdue"},
}

func sortLabel(o task.SortOrder) string {
	switch o {
	case task.SortAsc:
		return "Due Soon"
	case task.SortDesc:
		return "Due Later"
	default:
		return "Sort"
	}
}

// renderHeader renders the status bar: name, counts, sort and sync state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	snap := m.snapshot
	stats := snap.Stats

	parts := []string{bg.Render("ticklist", styles.Logo)}

	switch {
	case snap.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	case snap.InFlight > 0:
		parts = append(parts, bg.Render("● SYNCING", styles.WarningText.Bold(true)))
	case snap.Loaded:
		parts = append(parts, bg.Render("● SYNCED", styles.SuccessText))
	default:
		parts = append(parts, bg.Render("● LOADING", styles.WarningText.Bold(true)))
	}

	parts = append(parts,
		bg.Render(fmt.Sprintf("%d %s", stats.All, plural(stats.All, "task")), styles.Text),
		bg.Render(fmt.Sprintf("%d pending", stats.Pending), styles.MutedText),
	)
	if stats.Overdue > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d overdue", stats.Overdue), styles.DangerText))
	}

	sortStyle := styles.MutedText
	if snap.Sort != task.SortNone {
		sortStyle = styles.AccentText.Bold(true)
	}
	parts = append(parts, bg.Render("Sort: "+sortLabel(snap.Sort), sortStyle))

	if m.width >= layoutWideWidth && !snap.LastUpdated.IsZero() {
		parts = append(parts, bg.Render("updated "+snap.LastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderTabs renders the filter tabs with per-filter counts.
func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	stats := m.snapshot.Stats

	active := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Accent)).
		Bold(true).
		Underline(true)

	tabs := make([]string, 0, len(filterTabs))
	for i, tab := range filterTabs {
		label := fmt.Sprintf("%d %s (%d)", i+1, tab.label, stats.Count(tab.filter))
		if tab.filter == m.snapshot.Filter {
			tabs = append(tabs, active.Render(label))
		} else {
			tabs = append(tabs, styles.MutedText.Render(label))
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(tabs, "   ")...)
	return lipgloss.NewStyle().Padding(0, 1).Width(m.width).Render(line)
}

// renderFooter shows the latest failure or notice on the left and the
// completion rate on the right.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	snap := m.snapshot

	var left string
	switch {
	case m.notice != "":
		left = bg.Render(m.notice, styles.WarningText)
	case snap.LastError != nil:
		left = bg.Render(truncate(snap.LastError.Error(), max(m.width-24, 10)), styles.DangerText)
	default:
		hints := []string{
			bg.Render("a", styles.AccentText) + bg.Spaces(1) + bg.Render("add", styles.MutedText),
			bg.Render("space", styles.AccentText) + bg.Spaces(1) + bg.Render("done", styles.MutedText),
			bg.Render("e", styles.AccentText) + bg.Spaces(1) + bg.Render("edit", styles.MutedText),
			bg.Render("d", styles.AccentText) + bg.Spaces(1) + bg.Render("delete", styles.MutedText),
		}
		if snap.Stats.Completed > 0 {
			hints = append(hints, bg.Render("C", styles.AccentText)+bg.Spaces(1)+bg.Render("clear completed", styles.MutedText))
		}
		hints = append(hints, bg.Render("?", styles.AccentText)+bg.Spaces(1)+bg.Render("help", styles.MutedText))
		left = bg.Join(hints, "  ")
	}

	var right string
	if snap.Stats.All > 0 {
		right = bg.Render(fmt.Sprintf("Progress: %d%%", snap.Stats.CompletionRate), styles.SuccessText)
	}

	inner := max(m.width-2, 0)
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return styles.Footer.Width(m.width).Render(left)
	}
	return styles.Footer.Width(m.width).Render(left + bg.Spaces(gap) + right)
}

func joinWithGap(parts []string, gap string) []string {
	out := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			out = append(out, gap)
		}
		out = append(out, p)
	}
	return out
}
