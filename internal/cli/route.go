package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"orlop/internal/paths"
	"orlop/internal/runner"
	"orlop/internal/tools"
)

// ExecuteWrapper runs the tool behind a per-binary wrapper executable such as
// orlop-rg and exits with the tool's exit code.
func ExecuteWrapper(invoked string, args []string) {
	os.Exit(RunWrapper(invoked, args, os.Stderr))
}

// RunWrapper resolves invoked (the wrapper's basename) to a tool and spawns it.
func RunWrapper(invoked string, args []string, stderr io.Writer) int {
	invoked = filepath.Base(invoked)
	rootDir, verbose = "", false
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	def, ok := e.catalog.ResolveWrapper(invoked)
	if !ok {
		fmt.Fprintf(stderr, "Unknown binary wrapper: %s\n", invoked)
		return 1
	}
	return spawnTool(context.Background(), e, def, def.Binary, args, stderr)
}

func routeTool(ctx context.Context, name string, args []string, stderr io.Writer) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	def, ok := e.catalog.Resolve(name)
	if !ok {
		fmt.Fprintf(stderr, "Unknown tool: %s\n", name)
		fmt.Fprintln(stderr, "Run 'orlop --help' to see available tools")
		return 1
	}
	return spawnTool(ctx, e, def, name, args, stderr)
}

// spawnTool runs the installed binary with inherited stdio. Interrupts are
// left to the child; orlop exits with whatever code the child returns.
func spawnTool(ctx context.Context, e env, def tools.ToolMetadata, label string, args []string, stderr io.Writer) int {
	path := e.layout.ToolPath(def.Name, def.Binary)
	if ok, err := paths.FileExists(path); err != nil || !ok {
		reason := fmt.Sprintf("%s is not installed at %s", def.Binary, path)
		if err != nil {
			reason = err.Error()
		}
		fmt.Fprintf(stderr, "Failed to find %s: %s\n", label, reason)
		fmt.Fprintf(stderr, "Try reinstalling: orlop install %s\n", def.Name)
		return 1
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	code, err := runner.Spawn(ctx, path, args)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to execute %s: %v\n", label, err)
		return 1
	}
	if code < 0 {
		// Killed by a signal.
		return 1
	}
	return code
}
