package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"orlop/internal/tools"
)

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path [tool...]",
		Short: "Print where a tool's binary lives",
		Long: `Print the canonical binary path of each named tool, whether or not it is
installed. With no arguments, print the platform bin directory.`,
		RunE: runPath,
	}
}

func runPath(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintln(out, e.layout.BinDir)
		return nil
	}
	for _, name := range args {
		def, ok := e.catalog.Resolve(name)
		if !ok {
			return fmt.Errorf("%w: %s", tools.ErrUnknownTool, name)
		}
		fmt.Fprintln(out, e.layout.ToolPath(def.Name, def.Binary))
	}
	return nil
}
