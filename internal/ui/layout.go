package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// layoutWideWidth is the minimum width to show timestamps.
	layoutWideWidth = 100

	// chromeHeight counts the header, tabs, divider and footer lines.
	chromeHeight = 4
)

// renderMain stacks header, tabs, list and footer.
func (m Model) renderMain() string {
	styles := m.theme.Styles()
	divider := styles.FaintText.Render(strings.Repeat("─", max(m.width, 0)))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTabs(),
		divider,
		m.renderList(),
		m.renderFooter(),
	)
}
