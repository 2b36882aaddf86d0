package term

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	provisionalStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8"))

	totalStyle = lipgloss.NewStyle().
			Bold(true)

	overtimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)
)
