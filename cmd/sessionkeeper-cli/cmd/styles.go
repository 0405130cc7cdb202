package cmd

import "github.com/charmbracelet/lipgloss"

var (
	claudeTag = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	codexTag = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	pinnedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func sourceTag(source string) string {
	switch source {
	case "claude":
		return claudeTag.Render("claude")
	case "codex":
		return codexTag.Render("codex ")
	default:
		return source
	}
}

func statusTag(status string) string {
	switch status {
	case "error":
		return errStyle.Render(status)
	case "final":
		return pinnedStyle.Render(status)
	default:
		return dimStyle.Render(status)
	}
}
