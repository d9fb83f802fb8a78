package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"orlop/internal/paths"
)

var shellenvShell string

func newShellenvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shellenv",
		Short: "Print a PATH export for installed tools",
		Long: `Print a shell snippet that puts every installed tool directory on PATH.

  eval "$(orlop shellenv)"
  orlop shellenv --shell fish | source`,
		Args: cobra.NoArgs,
		RunE: runShellenv,
	}
	cmd.Flags().StringVar(&shellenvShell, "shell", "sh", "Output syntax: sh or fish")
	return cmd
}

func runShellenv(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	var dirs []string
	for _, def := range e.catalog.Tools() {
		dir := e.layout.ToolDir(def.Name)
		if ok, _ := paths.DirExists(dir); ok {
			dirs = append(dirs, dir)
		}
	}
	return writeShellenv(cmd.OutOrStdout(), shellenvShell, dirs)
}

// writeShellenv prepends dirs to PATH, leaving out any already present in the
// current PATH so that evaluating the output twice changes nothing.
func writeShellenv(out io.Writer, shell string, dirs []string) error {
	current := map[string]bool{}
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		current[p] = true
	}
	var add []string
	for _, d := range dirs {
		if !current[d] {
			add = append(add, d)
		}
	}

	switch shell {
	case "sh", "bash", "zsh":
		if len(add) == 0 {
			return nil
		}
		fmt.Fprintf(out, "export PATH=%s:\"$PATH\"\n", shellQuote(strings.Join(add, ":")))
	case "fish":
		for i := len(add) - 1; i >= 0; i-- {
			fmt.Fprintf(out, "set -gx PATH %s $PATH\n", shellQuote(add[i]))
		}
	default:
		return fmt.Errorf("unsupported shell %q (want sh or fish)", shell)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
