// Package orlop runs the command-line tools installed by `orlop install` from
// Go code.
//
//	res, err := orlop.Ripgrep(ctx, "TODO", orlop.Options{Dir: "./src"})
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Stdout)
//
// Binaries are looked up under the same install root the CLI uses: ORLOP_ROOT,
// then the root in the orlop config file, then the per-user data directory.
// A non-zero exit is reported in Result.ExitCode rather than as an error.
package orlop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"time"

	"orlop/internal/config"
	"orlop/internal/paths"
	"orlop/internal/platform"
	"orlop/internal/runner"
	"orlop/internal/tools"
)

// ErrUnknownTool is returned for names that are not in the catalog.
var ErrUnknownTool = tools.ErrUnknownTool

// Options configures one tool invocation. Args are appended after the
// positional arguments of the tool function.
type Options struct {
	Dir     string
	Args    []string
	Input   string
	Env     map[string]string
	Timeout time.Duration
}

// Result is the captured output of a finished tool.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Command  string
}

// Stream is a running tool with piped output. Read Stdout and Stderr, then
// call Wait.
type Stream struct {
	Cmd    *exec.Cmd
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	cancel context.CancelFunc
}

// Wait waits for the tool to exit and releases its timeout, if any.
func (s *Stream) Wait() error {
	defer s.cancel()
	return s.Cmd.Wait()
}

// Version returns the orlop release this package belongs to.
func Version() string {
	return tools.Version
}

// PlatformKey returns the key of the running platform, such as linux-x64.
func PlatformKey() (string, error) {
	key, err := platform.Current()
	if err != nil {
		return "", err
	}
	return string(key), nil
}

// IsSupported reports whether binaries exist for the running platform.
func IsSupported() bool {
	return platform.IsSupported()
}

// BinDir returns the platform directory that holds every tool directory.
func BinDir() (string, error) {
	layout, _, err := resolve()
	if err != nil {
		return "", err
	}
	return layout.BinDir, nil
}

// ToolPath returns the canonical binary path for a tool name or alias. The
// file may not exist yet.
func ToolPath(name string) (string, error) {
	layout, catalog, err := resolve()
	if err != nil {
		return "", err
	}
	def, ok := catalog.Resolve(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return layout.ToolPath(def.Name, def.Binary), nil
}

// AllToolPaths maps every catalog tool to its canonical binary path.
func AllToolPaths() (map[string]string, error) {
	layout, catalog, err := resolve()
	if err != nil {
		return nil, err
	}
	return catalog.ToolPaths(layout), nil
}

// ToolExists reports whether the tool is installed and answers --version.
func ToolExists(ctx context.Context, name string) bool {
	path, err := ToolPath(name)
	if err != nil {
		return false
	}
	return runner.Exists(ctx, path)
}

// Exec runs a tool by name or alias and waits for it.
func Exec(ctx context.Context, name string, args []string, opts Options) (Result, error) {
	path, err := ToolPath(name)
	if err != nil {
		return Result{}, err
	}
	res, err := runner.Run(ctx, path, slices.Concat(args, opts.Args), runnerOptions(opts))
	return Result(res), err
}

// StreamTool starts a tool by name or alias without buffering its output.
func StreamTool(ctx context.Context, name string, args []string, opts Options) (*Stream, error) {
	path, err := ToolPath(name)
	if err != nil {
		return nil, err
	}
	cancel := context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	cmd, stdout, stderr, err := runner.Stream(ctx, path, slices.Concat(args, opts.Args), runnerOptions(opts))
	if err != nil {
		cancel()
		return nil, err
	}
	return &Stream{Cmd: cmd, Stdout: stdout, Stderr: stderr, cancel: cancel}, nil
}

// IsTimeout reports whether err came from Options.Timeout elapsing.
func IsTimeout(err error) bool {
	return errors.Is(err, runner.ErrTimeout)
}

func runnerOptions(opts Options) runner.Options {
	return runner.Options{
		Dir:     opts.Dir,
		Env:     opts.Env,
		Input:   opts.Input,
		Timeout: opts.Timeout,
	}
}

func resolve() (paths.Layout, *tools.Catalog, error) {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return paths.Layout{}, nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return paths.Layout{}, nil, err
	}
	key, err := platform.Current()
	if err != nil {
		return paths.Layout{}, nil, err
	}
	layout, err := paths.Resolve("", cfg, key)
	if err != nil {
		return paths.Layout{}, nil, err
	}
	catalog, err := tools.LoadCatalog(cfg.Tools)
	if err != nil {
		return paths.Layout{}, nil, err
	}
	return layout, catalog, nil
}
