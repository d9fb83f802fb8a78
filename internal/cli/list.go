package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"orlop/internal/tools"
	"orlop/internal/tui"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every managed tool and whether it is installed",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	statuses, err := tools.Detect(e.fs, e.catalog, e.layout)
	if err != nil {
		return err
	}

	if outputJSON {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Platform: %s\n", e.layout.Platform)
	fmt.Fprintf(out, "Root:     %s\n\n", e.layout.Root)
	writeStatusTable(out, statuses)
	return nil
}

func writeStatusTable(out io.Writer, statuses []tools.Status) {
	header := []string{"TOOL", "BINARY", "STATUS", "VERSION", "PATH"}
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, []string{
			st.Tool,
			st.Binary,
			string(st.State),
			tui.NonEmptyOrDash(st.Version),
			tui.NonEmptyOrDash(st.Path),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	cell := func(style lipgloss.Style, i int, value string) string {
		if i == len(widths)-1 {
			return style.Render(value)
		}
		return style.Width(widths[i] + 2).Render(value)
	}

	var line string
	for i, h := range header {
		line += cell(tui.HeaderStyle, i, h)
	}
	fmt.Fprintln(out, line)
	for _, row := range rows {
		line = ""
		for i, value := range row {
			style := lipgloss.NewStyle()
			if i == 2 {
				style = tui.StatusStyle(value)
			}
			line += cell(style, i, value)
		}
		fmt.Fprintln(out, line)
	}
}
