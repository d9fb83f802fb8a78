package tui

import "github.com/charmbracelet/lipgloss"

// Row statuses shown in the STATUS column.
const (
	StatusPending     = "pending"
	StatusResolving   = "resolving"
	StatusDownloading = "downloading"
	StatusExtracting  = "extracting"
	StatusInstalled   = "installed"
	StatusSkipped     = "skipped"
	StatusFailed      = "failed"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	// TitleStyle styles the line above the table.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	statusStyles = map[string]lipgloss.Style{
		StatusInstalled: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		StatusResolving:   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusDownloading: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusExtracting:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		StatusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"missing":     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"unavailable": lipgloss.NewStyle().Faint(true),

		StatusFailed: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		StatusPending: lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// IsTerminalStatus reports whether status ends a row's progress.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusInstalled, StatusSkipped, StatusFailed:
		return true
	}
	return false
}
