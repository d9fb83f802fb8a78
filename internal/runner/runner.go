package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Options configures a single invocation of an installed binary.
type Options struct {
	Dir     string
	Env     map[string]string
	Input   string
	Timeout time.Duration
	Stdout  io.Writer
	Stderr  io.Writer
}

// Result is the captured outcome of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Command  string
}

// ErrTimeout is returned when Options.Timeout elapses before the process exits.
var ErrTimeout = errors.New("command timed out")

// Runner executes binaries by absolute path.
type Runner interface {
	Run(ctx context.Context, path string, args []string, opts Options) (Result, error)
}

// CmdRunner runs processes through os/exec.
type CmdRunner struct{}

var _ Runner = CmdRunner{}

// Run executes path and waits for it. A non-zero exit is reported through
// Result.ExitCode, not as an error; errors mean the process could not start or
// was stopped by the timeout or ctx.
func (CmdRunner) Run(ctx context.Context, path string, args []string, opts Options) (Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := command(ctx, path, args, opts)

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutWriter := io.Writer(&stdoutBuf)
	if opts.Stdout != nil {
		stdoutWriter = io.MultiWriter(&stdoutBuf, opts.Stdout)
	}
	stderrWriter := io.Writer(&stderrBuf)
	if opts.Stderr != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, opts.Stderr)
	}
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	err := cmd.Run()
	res := Result{
		Stdout:  strings.TrimRight(stdoutBuf.String(), "\n"),
		Stderr:  strings.TrimRight(stderrBuf.String(), "\n"),
		Command: commandLine(path, args),
	}
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		res.ExitCode = -1
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && opts.Timeout > 0 {
			return res, fmt.Errorf("%s: %w after %s", res.Command, ErrTimeout, opts.Timeout)
		}
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("run %s: %w", path, err)
}

// Run executes path with the default runner.
func Run(ctx context.Context, path string, args []string, opts Options) (Result, error) {
	return CmdRunner{}.Run(ctx, path, args, opts)
}

// Stream starts path with piped stdout and stderr and returns the running
// command. The caller reads the pipes and then calls Wait.
func Stream(ctx context.Context, path string, args []string, opts Options) (*exec.Cmd, io.ReadCloser, io.ReadCloser, error) {
	cmd := command(ctx, path, args, opts)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, nil, fmt.Errorf("start %s: %w", path, err)
	}
	return cmd, stdout, stderr, nil
}

// Spawn runs path attached to the current process's stdio and returns its
// exit code.
func Spawn(ctx context.Context, path string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, fmt.Errorf("run %s: %w", path, err)
}

// Exists reports whether path can be executed, probing it with --version.
func Exists(ctx context.Context, path string) bool {
	_, err := Run(ctx, path, []string{"--version"}, Options{Timeout: 5 * time.Second})
	return err == nil
}

func command(ctx context.Context, path string, args []string, opts Options) *exec.Cmd {
	cmd := exec.CommandContext(ctx, path, args...)
	// Children that inherit the pipes must not hold Wait open past a kill.
	cmd.WaitDelay = time.Second
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), envList(opts.Env)...)
	}
	if opts.Input != "" {
		cmd.Stdin = strings.NewReader(opts.Input)
	}
	return cmd
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func commandLine(path string, args []string) string {
	return strings.TrimSpace(path + " " + strings.Join(args, " "))
}
