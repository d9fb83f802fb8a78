package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"orlop/internal/tools"
)

var (
	rootDir    string
	outputJSON bool
	verbose    bool
)

// reserved names always run as subcommands and are never routed to a tool.
var reserved = map[string]bool{
	"install":    true,
	"list":       true,
	"path":       true,
	"outdated":   true,
	"doctor":     true,
	"shellenv":   true,
	"config":     true,
	"help":       true,
	"completion": true,
}

// ExitError carries a specific process exit code out of a command. A nil Err
// exits silently.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Execute runs orlop with the process arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run dispatches args and returns the exit code. A first argument that is
// neither a flag nor a reserved subcommand names a managed tool, which is
// spawned with the remaining arguments.
func Run(args []string, stdout, stderr io.Writer) int {
	if r, ok := parseRouted(args); ok {
		rootDir, verbose = r.root, r.verbose
		return routeTool(context.Background(), r.tool, r.args, stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args == nil {
		// cobra falls back to os.Args when given nil.
		args = []string{}
	}
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return exitCode(cmd.ExecuteContext(ctx), stderr)
}

type routed struct {
	root    string
	verbose bool
	tool    string
	args    []string
}

// parseRouted accepts the persistent flags ahead of a tool name, as in
// `orlop --root /opt/orlop rg TODO`. Everything after the tool name belongs to
// the tool. Any other leading flag leaves the arguments to cobra.
func parseRouted(args []string) (routed, bool) {
	var r routed
	fs := pflag.NewFlagSet("orlop", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.StringVar(&r.root, "root", "", "")
	fs.BoolVar(&r.verbose, "verbose", false, "")
	fs.Bool("json", false, "")
	if err := fs.Parse(args); err != nil {
		return routed{}, false
	}

	rest := fs.Args()
	if len(rest) == 0 || reserved[rest[0]] || strings.HasPrefix(rest[0], "-") {
		return routed{}, false
	}
	r.tool, r.args = rest[0], rest[1:]
	return r, true
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orlop",
		Short: "Modern CLI development tools, fetched from upstream releases",
		Long: `orlop installs prebuilt release binaries of common command-line tools
and runs them from a per-platform directory.

Usage: orlop [--root DIR] [--verbose] <tool> [args...]`,
		Example: `  orlop install
  orlop rg "TODO" ./src
  orlop bat README.md
  eval "$(orlop shellenv)"`,
		Version:       tools.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&rootDir, "root", "", "Install root (overrides ORLOP_ROOT and the config file)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log at debug level and mirror the log to stderr")

	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		if c.HasParent() {
			return
		}
		writeToolList(c.OutOrStdout())
	})

	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPathCmd())
	cmd.AddCommand(newOutdatedCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newShellenvCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// writeToolList appends the catalog to the root help. A broken config falls
// back to the embedded catalog so help always renders.
func writeToolList(out io.Writer) {
	catalog, err := catalogForHelp()
	if err != nil {
		return
	}

	type line struct{ names, desc string }
	var (
		lines []line
		width int
	)
	for _, def := range catalog.Tools() {
		names := strings.Join(append([]string{def.Name}, catalog.Aliases(def.Name)...), ", ")
		width = max(width, len(names))
		lines = append(lines, line{names, def.Description})
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Available tools:")
	for _, l := range lines {
		fmt.Fprintf(out, "  %-*s  %s\n", width, l.names, l.desc)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "For tool-specific help:")
	fmt.Fprintln(out, "  orlop <tool> --help")
}

func catalogForHelp() (*tools.Catalog, error) {
	if e, err := loadEnv(); err == nil {
		return e.catalog, nil
	}
	return tools.DefaultCatalog()
}
