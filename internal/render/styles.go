package render

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#6C63FF")
	colorMuted   = lipgloss.Color("#666666")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F39C12")
	colorError   = lipgloss.Color("#E74C3C")
	colorSubtle  = lipgloss.Color("#414868")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	dayHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorSubtle)

	todayHeaderStyle = dayHeaderStyle.
				Foreground(colorPrimary)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	pendingStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	completedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Strikethrough(true)

	overdueStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)
)
