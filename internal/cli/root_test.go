package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orlop/internal/paths"
)

func TestVersionFlag(t *testing.T) {
	setupEnv(t)

	for _, flag := range []string{"--version", "-v"} {
		code, stdout, _ := run(t, flag)
		assert.Equal(t, 0, code)
		assert.Equal(t, "0.1.0\n", stdout)
	}
}

func TestHelpListsTools(t *testing.T) {
	setupEnv(t)

	for _, args := range [][]string{nil, {"--help"}, {"-h"}} {
		code, stdout, _ := run(t, args...)
		require.Equal(t, 0, code)
		assert.Contains(t, stdout, "Available tools:")
		assert.Contains(t, stdout, "ripgrep, rg")
		assert.Contains(t, stdout, "lsd, ls")
		assert.Contains(t, stdout, "hello, hi")
		assert.Contains(t, stdout, "install")
	}
}

func TestSubcommandHelpOmitsToolList(t *testing.T) {
	setupEnv(t)

	code, stdout, _ := run(t, "install", "--help")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "--jobs")
	assert.NotContains(t, stdout, "Available tools:")
}

func TestRouteUnknownTool(t *testing.T) {
	setupEnv(t)

	code, _, stderr := run(t, "nope", "--flag")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown tool: nope")
	assert.Contains(t, stderr, "Run 'orlop --help' to see available tools")
}

func TestRouteMissingBinary(t *testing.T) {
	setupEnv(t)

	code, _, stderr := run(t, "hi")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Failed to find hi")
	assert.Contains(t, stderr, "Try reinstalling: orlop install hello")
}

func TestRoutePassesChildExitCode(t *testing.T) {
	setupEnv(t)
	installHello(t)

	code, _, stderr := run(t, "hello", "--anything", "goes")
	assert.Equal(t, 3, code, stderr)

	code, _, _ = run(t, "HI")
	assert.Equal(t, 3, code)
}

func TestRunWrapper(t *testing.T) {
	setupEnv(t)

	var stderr bytes.Buffer
	code := RunWrapper("/usr/local/bin/orlop-nope", nil, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Unknown binary wrapper: orlop-nope")

	installHello(t)
	stderr.Reset()
	code = RunWrapper("orlop-hello", []string{"x"}, &stderr)
	assert.Equal(t, 3, code, stderr.String())
}

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 0, exitCode(nil, &stderr))

	assert.Equal(t, 4, exitCode(&ExitError{Code: 4}, &stderr))
	assert.Empty(t, stderr.String())

	assert.Equal(t, 2, exitCode(&ExitError{Code: 2, Err: errors.New("bad input")}, &stderr))
	assert.Equal(t, "error: bad input\n", stderr.String())

	stderr.Reset()
	assert.Equal(t, 1, exitCode(errors.New("boom"), &stderr))
	assert.Equal(t, "error: boom\n", stderr.String())
}

func TestRouteHonoursLeadingRootFlag(t *testing.T) {
	te := setupEnv(t)
	installHello(t)
	t.Setenv(paths.RootEnv, filepath.Join(t.TempDir(), "elsewhere"))

	code, _, stderr := run(t, "hello")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Failed to find hello")

	code, _, stderr = run(t, "--root", te.root, "hello", "--root", "ignored")
	assert.Equal(t, 3, code, stderr)

	code, _, stderr = run(t, "--verbose", "--root="+te.root, "hi")
	assert.Equal(t, 3, code, stderr)
}

func TestParseRouted(t *testing.T) {
	tests := []struct {
		args     []string
		ok       bool
		tool     string
		root     string
		toolArgs []string
	}{
		{args: []string{"rg", "-n", "TODO"}, ok: true, tool: "rg", toolArgs: []string{"-n", "TODO"}},
		{args: []string{"--root", "/opt/o", "rg", "--root", "x"}, ok: true, tool: "rg", root: "/opt/o", toolArgs: []string{"--root", "x"}},
		{args: []string{"--verbose", "bat"}, ok: true, tool: "bat", toolArgs: []string{}},
		{args: nil},
		{args: []string{"--help"}},
		{args: []string{"-v"}},
		{args: []string{"--root", "/opt/o", "install"}},
		{args: []string{"list", "--json"}},
		{args: []string{"--root"}},
	}
	for _, tt := range tests {
		r, ok := parseRouted(tt.args)
		require.Equal(t, tt.ok, ok, "args %q", tt.args)
		if !ok {
			continue
		}
		assert.Equal(t, tt.tool, r.tool)
		assert.Equal(t, tt.root, r.root)
		assert.Equal(t, tt.toolArgs, r.args)
	}
}
