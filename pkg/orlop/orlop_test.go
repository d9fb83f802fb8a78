package orlop

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orlop/internal/config"
	"orlop/internal/paths"
	"orlop/internal/platform"
)

const echoScript = `#!/bin/sh
echo "args:$*"
echo "dir:$(pwd)"
echo "env:$ORLOP_TEST"
cat >&2
exit 2
`

func setupRoot(t *testing.T) (string, platform.Key) {
	t.Helper()
	key, err := platform.Current()
	if err != nil {
		t.Skipf("host platform not supported: %v", err)
	}
	dir := t.TempDir()
	root := filepath.Join(dir, "root")
	t.Setenv(paths.RootEnv, root)
	t.Setenv(config.PathEnv, filepath.Join(dir, "missing.yaml"))
	return root, key
}

func installScript(t *testing.T, tool, body string) string {
	t.Helper()
	path, err := ToolPath(tool)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestPathsFollowRoot(t *testing.T) {
	root, key := setupRoot(t)
	binDir := filepath.Join(root, "bin", string(key))

	got, err := BinDir()
	require.NoError(t, err)
	assert.Equal(t, binDir, got)

	rg, err := ToolPath("rg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(binDir, "ripgrep", "rg"), rg)

	all, err := AllToolPaths()
	require.NoError(t, err)
	assert.Len(t, all, 17)
	assert.Equal(t, rg, all["ripgrep"])
	assert.Equal(t, filepath.Join(binDir, "procs", "procs"), all["procs"])

	_, err = ToolPath("nope")
	assert.True(t, errors.Is(err, ErrUnknownTool))
}

func TestPlatformHelpers(t *testing.T) {
	_, key := setupRoot(t)

	got, err := PlatformKey()
	require.NoError(t, err)
	assert.Equal(t, string(key), got)
	assert.True(t, IsSupported())
	assert.Equal(t, "0.1.0", Version())
}

func TestRipgrepPassesOptions(t *testing.T) {
	setupRoot(t)
	installScript(t, "ripgrep", echoScript)
	work, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	res, err := Ripgrep(context.Background(), "TODO", Options{
		Dir:   work,
		Args:  []string{"-n", "src"},
		Env:   map[string]string{"ORLOP_TEST": "yes"},
		Input: "from stdin",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "args:TODO -n src\ndir:"+work+"\nenv:yes", res.Stdout)
	assert.Equal(t, "from stdin", res.Stderr)
	assert.Contains(t, res.Command, "TODO -n src")
}

func TestOptionalPositionals(t *testing.T) {
	setupRoot(t)
	for _, tool := range []string{"bat", "gdu", "hyperfine", "procs"} {
		installScript(t, tool, echoScript)
	}
	ctx := context.Background()

	res, err := Bat(ctx, "", Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "args:\n")

	res, err = Gdu(ctx, "", Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "args:--non-interactive\n")

	res, err = Gdu(ctx, "/tmp", Options{Args: []string{"-s"}})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "args:--non-interactive /tmp -s\n")

	res, err = Hyperfine(ctx, []string{"sleep 0", "true"}, Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "args:sleep 0 true\n")

	res, err = Procs(ctx, Options{Args: []string{"--tree"}})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "args:--tree\n")
}

func TestStreamTool(t *testing.T) {
	setupRoot(t)
	installScript(t, "ripgrep", echoScript)

	s, err := RipgrepStream(context.Background(), "TODO", Options{})
	require.NoError(t, err)
	out, err := io.ReadAll(s.Stdout)
	require.NoError(t, err)
	_, err = io.ReadAll(s.Stderr)
	require.NoError(t, err)

	err = s.Wait()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
	assert.Contains(t, string(out), "args:TODO")
}

func TestToolExists(t *testing.T) {
	setupRoot(t)
	installScript(t, "fd", echoScript)

	assert.True(t, ToolExists(context.Background(), "fd"))
	assert.False(t, ToolExists(context.Background(), "bat"))
	assert.False(t, ToolExists(context.Background(), "nope"))
}

func TestMissingBinaryIsAnError(t *testing.T) {
	setupRoot(t)

	_, err := Hexyl(context.Background(), "file.bin", Options{})
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	setupRoot(t)
	installScript(t, "tokei", "#!/bin/sh\nexec sleep 5\n")

	start := time.Now()
	_, err := Tokei(context.Background(), ".", Options{Timeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.Less(t, time.Since(start), 4*time.Second)
}
