package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/ticklist/internal/task"
)

type badgeLevel int

const (
	badgeOverdue badgeLevel = iota
	badgeToday
	badgeSoon
	badgeLater
	badgeSaving
)

// soonDays is the last day count rendered with the "soon" color.
const soonDays = 3

// deadlineBadge describes how far away an open task's deadline is. ok is
// false for completed tasks and tasks without a deadline.
func deadlineBadge(t task.Task, now time.Time) (label string, level badgeLevel, ok bool) {
	if t.Completed || t.Deadline.IsZero() {
		return "", 0, false
	}
	days := task.DaysUntil(t.Deadline, now)
	switch {
	case days < 0:
		late := -days
		return fmt.Sprintf("%d %s overdue", late, plural(late, "day")), badgeOverdue, true
	case days == 0:
		return "Due today", badgeToday, true
	case days == 1:
		return "Due tomorrow", badgeSoon, true
	case days <= soonDays:
		return fmt.Sprintf("%d days left", days), badgeSoon, true
	default:
		return fmt.Sprintf("%d days left", days), badgeLater, true
	}
}

type emptyState struct {
	title, hint string
}

var emptyStates = map[task.Filter]emptyState{
	task.FilterAll:       {"No tasks yet", "Add your first task to get started! Press a."},
	task.FilterPending:   {"No pending tasks", "All tasks are completed!"},
	task.FilterCompleted: {"No completed tasks", "Complete some tasks to see them here."},
	task.FilterOverdue:   {"No overdue tasks", "Great! No tasks are overdue."},
}

// listRows is how many task rows fit between the chrome lines.
func (m Model) listRows() int {
	return max(m.height-chromeHeight, 1)
}

// renderList renders the visible slice of the task list.
func (m Model) renderList() string {
	rows := m.listRows()
	visible := m.snapshot.Visible

	if len(visible) == 0 {
		return m.renderEmpty(rows)
	}

	end := min(m.offset+rows, len(visible))
	lines := make([]string, 0, rows)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(visible[i], i == m.selected))
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(t task.Task, selected bool) string {
	rowBg := m.theme.Background
	if selected {
		rowBg = m.theme.SelectionBg
	}
	styles := m.theme.Styles().WithBackground(rowBg)
	bg := newBgStyle(rowBg)
	now := m.snapshot.Now

	marker := "  "
	if selected {
		marker = "▸ "
	}
	check := "[ ]"
	checkStyle := styles.MutedText
	if t.Completed {
		check = "[x]"
		checkStyle = styles.SuccessText
	}

	var tags []string
	switch {
	case t.Pending:
		tags = append(tags, styles.Badge(badgeSaving, "saving…"))
	default:
		if label, level, ok := deadlineBadge(t, now); ok {
			tags = append(tags, styles.Badge(level, label))
		}
		if task.IsOverdue(t, now) {
			tags = append(tags, styles.DangerText.Render("OVERDUE"))
		}
	}
	right := ""
	if len(tags) > 0 {
		right = bg.Join(tags, " ")
	}

	meta := ""
	if m.width >= layoutWideWidth && !t.CreatedAt.IsZero() {
		meta = styles.FaintText.Render("Created: " + t.CreatedAt.In(now.Location()).Format("Jan 2, 2006"))
	}

	prefix := styles.AccentText.Render(marker) + checkStyle.Render(check) + bg.Spaces(1)
	used := lipgloss.Width(prefix) + lipgloss.Width(right) + lipgloss.Width(meta) + 4
	textWidth := max(m.width-used, 8)

	textStyle := styles.Text
	if t.Completed {
		textStyle = styles.Done
	}
	text := textStyle.Render(truncate(t.Text, textWidth))

	left := prefix + text
	tail := right
	if meta != "" {
		if tail != "" {
			tail += bg.Spaces(2)
		}
		tail += meta
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(tail)-1, 1)
	line := left + bg.Spaces(gap) + tail
	return bg.FillLine(line, m.width)
}

func (m Model) renderEmpty(rows int) string {
	styles := m.theme.Styles()

	if !m.snapshot.Loaded && m.snapshot.LastError == nil {
		return lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("Loading tasks..."))
	}

	empty, ok := emptyStates[m.snapshot.Filter]
	if !ok {
		empty = emptyStates[task.FilterAll]
	}
	body := lipgloss.JoinVertical(lipgloss.Center,
		styles.Text.Bold(true).Render(empty.title),
		styles.MutedText.Render(empty.hint),
	)
	return lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center, body)
}
