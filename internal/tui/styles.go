package tui

import "github.com/charmbracelet/lipgloss"

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	badgeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("220")).
			Padding(1, 4).
			Align(lipgloss.Center)

	badgeHeadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
)
