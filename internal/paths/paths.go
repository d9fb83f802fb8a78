package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"orlop/internal/config"
	"orlop/internal/platform"
)

// RootEnv overrides the install root when set.
const RootEnv = "ORLOP_ROOT"

const manifestFileName = "manifest.json"

// Layout captures the canonical on-disk locations for one platform under an
// install root. Binaries live at <Root>/bin/<platform>/<tool>/<binary>.
type Layout struct {
	Root             string
	Platform         platform.Key
	BinDir           string
	CacheDir         string
	LogsDir          string
	ManifestFile     string
	ReleaseCacheFile string
}

// New builds the layout for root and key without touching the filesystem.
func New(root string, key platform.Key) Layout {
	binDir := filepath.Join(root, "bin", string(key))
	cacheDir := filepath.Join(root, "cache")
	return Layout{
		Root:             root,
		Platform:         key,
		BinDir:           binDir,
		CacheDir:         cacheDir,
		LogsDir:          filepath.Join(root, "logs"),
		ManifestFile:     filepath.Join(binDir, manifestFileName),
		ReleaseCacheFile: filepath.Join(cacheDir, "releases.json"),
	}
}

// Resolve determines the install root using, in order, the --root flag, the
// ORLOP_ROOT environment variable, the config file and the per-user default.
func Resolve(rootFlag string, cfg config.Config, key platform.Key) (Layout, error) {
	root, err := ResolveRoot(rootFlag, cfg)
	if err != nil {
		return Layout{}, err
	}
	l := New(root, key)
	if dir := strings.TrimSpace(cfg.Log.Dir); dir != "" {
		l.LogsDir = resolveRootPath(root, dir)
	}
	return l, nil
}

// ResolveRoot returns the absolute install root.
func ResolveRoot(rootFlag string, cfg config.Config) (string, error) {
	candidates := []struct {
		value  string
		source string
	}{
		{rootFlag, "--root"},
		{os.Getenv(RootEnv), RootEnv},
		{cfg.Root, "config root"},
	}
	for _, c := range candidates {
		value := strings.TrimSpace(c.value)
		if value == "" {
			continue
		}
		abs, err := filepath.Abs(expandHome(value))
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", c.source, err)
		}
		return abs, nil
	}
	return DefaultRoot()
}

// DefaultRoot returns the per-user data directory for orlop.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Orlop"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "orlop"), nil
		}
		return filepath.Join(home, ".local", "share", "orlop"), nil
	}
}

// ToolDir is the directory holding one tool's binary and staging files.
func (l Layout) ToolDir(tool string) string {
	return filepath.Join(l.BinDir, tool)
}

// ToolPath is the canonical binary location. An empty binary name falls back
// to the tool name.
func (l Layout) ToolPath(tool, binary string) string {
	if binary == "" {
		binary = tool
	}
	return filepath.Join(l.ToolDir(tool), binary)
}

// StagingPath is where a release asset is downloaded before it is placed.
func (l Layout) StagingPath(tool, asset string) string {
	return filepath.Join(l.ToolDir(tool), asset)
}

// EnsureDirs creates the bin, cache and logs directories.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.BinDir, l.CacheDir, l.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func resolveRootPath(root, value string) string {
	value = expandHome(value)
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

func expandHome(value string) string {
	if value != "~" && !strings.HasPrefix(value, "~/") {
		return value
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return value
	}
	return filepath.Join(home, strings.TrimPrefix(value, "~"))
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
