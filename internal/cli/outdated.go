package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"orlop/internal/tools"
	"orlop/internal/tui"
)

var outdatedRefresh bool

func newOutdatedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outdated",
		Short: "Compare installed versions with the latest releases",
		Args:  cobra.NoArgs,
		RunE:  runOutdated,
	}
	cmd.Flags().BoolVar(&outdatedRefresh, "refresh", false, "Ignore cached release lookups")
	return cmd
}

func runOutdated(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	var status *tui.StatusWriter
	if !outputJSON && tui.IsTerminal(cmd.ErrOrStderr()) {
		status = tui.NewStatusWriter(cmd.ErrOrStderr())
		status.Update("Checking latest releases")
	}
	updates, err := tools.CheckOutdated(cmd.Context(), e.fs, e.catalog, e.layout, newReleaseSource(e, outdatedRefresh))
	if status != nil {
		status.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		data, err := json.MarshalIndent(updates, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(updates) == 0 {
		fmt.Fprintln(out, "No tools installed. Run 'orlop install' first.")
		return nil
	}

	var stale int
	w := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tINSTALLED\tLATEST\tSTATUS")
	for _, u := range updates {
		state := "up to date"
		switch {
		case u.Error != "":
			state = "error: " + u.Error
		case u.Outdated:
			state = "outdated"
			stale++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Tool, tui.NonEmptyOrDash(u.Installed), tui.NonEmptyOrDash(u.Latest), state)
	}
	w.Flush()

	if stale > 0 {
		fmt.Fprintf(out, "\n%d tool(s) can be updated with 'orlop install'.\n", stale)
	}
	return nil
}
