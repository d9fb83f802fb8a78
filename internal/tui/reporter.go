package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"orlop/internal/tools"
)

// InstallReporter forwards installer progress to a bubbletea program as row
// updates keyed by tool name.
type InstallReporter struct {
	send func(tea.Msg)
}

var _ tools.Reporter = (*InstallReporter)(nil)

// NewInstallReporter wraps send, usually the callback given by RunWithWork.
func NewInstallReporter(send func(tea.Msg)) *InstallReporter {
	return &InstallReporter{send: send}
}

// Stage implements tools.Reporter.
func (r *InstallReporter) Stage(tool string, stage tools.Stage, detail string) {
	r.send(RowUpdateMsg{
		Key: tool,
		Fields: map[string]string{
			"STATUS": string(stage),
			"DETAIL": detail,
		},
	})
}

// Done implements tools.Reporter.
func (r *InstallReporter) Done(o tools.Outcome) {
	r.send(RowUpdateMsg{Key: o.Tool, Fields: OutcomeFields(o)})
}

// OutcomeFields maps a finished outcome onto the install columns.
func OutcomeFields(o tools.Outcome) map[string]string {
	fields := map[string]string{
		"TOOL":    o.Tool,
		"STATUS":  o.Kind.String(),
		"VERSION": NonEmptyOrDash(o.Version),
	}
	switch o.Kind {
	case tools.OutcomeInstalled:
		fields["DETAIL"] = NonEmptyOrDash(o.Asset)
	default:
		fields["DETAIL"] = NonEmptyOrDash(o.Reason)
	}
	return fields
}

// InstallRow returns the initial row values for a tool.
func InstallRow(tool string) []string {
	return []string{tool, StatusPending, "-", ""}
}
