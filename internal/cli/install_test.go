package cli

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orlop/internal/config"
	"orlop/internal/tui"
)

func TestInstallPlacesExecutable(t *testing.T) {
	te := setupEnv(t)

	code, stdout, stderr := run(t, "install", "hi")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "hello")
	assert.Contains(t, stdout, "installed")
	assert.Contains(t, stdout, "hello-1.0.0")
	assert.Contains(t, stdout, "1 installed, 0 skipped, 0 failed")

	info, err := os.Stat(te.layout().ToolPath("hello", "hello"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "binary should be executable")

	_, err = os.Stat(te.layout().ManifestFile)
	assert.NoError(t, err, "manifest should be written")

	_, err = os.Stat(te.layout().LogsDir)
	assert.NoError(t, err, "log directory should exist")
}

func TestInstallFailureExitsNonZero(t *testing.T) {
	te := setupEnv(t)
	te.source.set("v1.0.0", errOffline)

	code, stdout, stderr := run(t, "install", "hello")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "failed")
	assert.Contains(t, stdout, "0 installed, 0 skipped, 1 failed")
	assert.Contains(t, stderr, "1 tool(s) failed: hello")
}

func TestInstallUnknownTool(t *testing.T) {
	setupEnv(t)

	code, stdout, stderr := run(t, "install", "hello", "nope")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "unknown tool: nope")
}

func TestInstallJSON(t *testing.T) {
	te := setupEnv(t)

	code, stdout, stderr := run(t, "install", "hello", "--json")
	require.Equal(t, 0, code, stderr)

	var report struct {
		Platform string `json:"platform"`
		Tools    []struct {
			Tool    string `json:"tool"`
			Status  string `json:"status"`
			Version string `json:"version"`
			Path    string `json:"path"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, string(te.key), report.Platform)
	require.Len(t, report.Tools, 1)
	assert.Equal(t, "hello", report.Tools[0].Tool)
	assert.Equal(t, "installed", report.Tools[0].Status)
	assert.Equal(t, "1.0.0", report.Tools[0].Version)
	assert.Equal(t, te.layout().ToolPath("hello", "hello"), report.Tools[0].Path)
}

func TestInstallJobsFlag(t *testing.T) {
	setupEnv(t)

	code, stdout, stderr := run(t, "install", "--jobs", "4", "hello", "hi")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "1 installed, 0 skipped, 0 failed")
}

func TestInstallRejectsInvalidConfig(t *testing.T) {
	te := setupEnv(t)
	bad := strings.Replace(testConfig, "  jobs: 1\n", "  jobs: 1\n  retries: -1\n  timeout: -5s\n", 1)
	require.NoError(t, os.WriteFile(te.cfgPath, []byte(bad), 0o644))

	code, stdout, stderr := run(t, "install", "hello")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "invalid config")
	assert.Contains(t, stderr, "install.retries must not be negative")
	assert.Contains(t, stderr, "install.timeout must not be negative")

	_, err := os.Stat(te.layout().ToolPath("hello", "hello"))
	assert.True(t, os.IsNotExist(err), "nothing should be installed")
}

func TestLogConfigForKeepsTerminalClearDuringTUI(t *testing.T) {
	debug := config.LogConfig{Level: "debug", Debug: true}

	got := logConfigFor(debug, tui.ModeTUI)
	assert.False(t, got.Debug, "stderr mirror must be off under the live table")
	assert.Equal(t, "debug", got.Level, "file logging stays at debug level")

	assert.True(t, logConfigFor(debug, tui.ModePlain).Debug)
	assert.True(t, logConfigFor(debug, tui.ModeJSON).Debug)
}
