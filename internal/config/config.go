package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// PathEnv points at an alternate config file.
	PathEnv = "ORLOP_CONFIG"
	// DebugEnv switches logging to debug and mirrors it to stderr.
	DebugEnv = "ORLOP_DEBUG"
)

// Config captures user-level settings for orlop.
type Config struct {
	Version     int           `yaml:"version"`
	Root        string        `yaml:"root,omitempty"`
	GitHubToken string        `yaml:"github_token,omitempty"`
	Install     InstallConfig `yaml:"install"`
	Log         LogConfig     `yaml:"log"`
	Tools       []ToolEntry   `yaml:"tools,omitempty"`
}

// InstallConfig tunes the installer.
type InstallConfig struct {
	Jobs            int            `yaml:"jobs"`
	Retries         *int           `yaml:"retries,omitempty"`
	Timeout         time.Duration  `yaml:"timeout"`
	ReleaseCacheTTL *time.Duration `yaml:"release_cache_ttl,omitempty"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir,omitempty"`
	Debug bool   `yaml:"-"`
}

// ToolEntry describes one managed tool. The embedded catalog and the user
// overrides share this schema.
type ToolEntry struct {
	Name        string                   `yaml:"name"`
	Repo        string                   `yaml:"repo,omitempty"`
	Binary      string                   `yaml:"binary,omitempty"`
	Description string                   `yaml:"description,omitempty"`
	Aliases     []string                 `yaml:"aliases,omitempty"`
	Platforms   map[string]PlatformEntry `yaml:"platforms,omitempty"`
}

// PlatformEntry selects the release asset for one platform key.
type PlatformEntry struct {
	Pattern     string `yaml:"pattern"`
	ExtractPath string `yaml:"extract_path,omitempty"`
	NoExtract   bool   `yaml:"no_extract,omitempty"`
}

// RetriesValue returns the effective download retry count.
func (c InstallConfig) RetriesValue() int {
	if c.Retries == nil {
		return 2
	}
	return *c.Retries
}

// ReleaseCacheTTLValue returns the effective release cache lifetime. Zero
// disables the cache.
func (c InstallConfig) ReleaseCacheTTLValue() time.Duration {
	if c.ReleaseCacheTTL == nil {
		return time.Hour
	}
	return *c.ReleaseCacheTTL
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Install: InstallConfig{
			Jobs:            1,
			Retries:         intPtr(2),
			Timeout:         10 * time.Minute,
			ReleaseCacheTTL: durationPtr(time.Hour),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the config file location, honouring ORLOP_CONFIG.
func DefaultPath() (string, error) {
	if override := strings.TrimSpace(os.Getenv(PathEnv)); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", PathEnv, err)
		}
		return abs, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("detect config dir: %w", err)
	}
	return filepath.Join(dir, "orlop", "config.yaml"), nil
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration. Environment overrides are applied either way.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			cfg.ApplyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Install.Jobs == 0 {
		c.Install.Jobs = defaults.Install.Jobs
	}
	if c.Install.Retries == nil {
		c.Install.Retries = intPtr(defaults.Install.RetriesValue())
	}
	if c.Install.Timeout == 0 {
		c.Install.Timeout = defaults.Install.Timeout
	}
	if c.Install.ReleaseCacheTTL == nil {
		c.Install.ReleaseCacheTTL = durationPtr(defaults.Install.ReleaseCacheTTLValue())
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// ApplyEnv layers environment overrides on top of file values.
func (c *Config) ApplyEnv() {
	for _, name := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := strings.TrimSpace(os.Getenv(name)); token != "" {
			c.GitHubToken = token
			break
		}
	}
	if v := strings.TrimSpace(os.Getenv(DebugEnv)); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		c.Log.Level = "debug"
		c.Log.Debug = true
	}
}

// Marshal returns the YAML encoding of the configuration. The token is masked.
func (c Config) Marshal() ([]byte, error) {
	if c.GitHubToken != "" {
		c.GitHubToken = "********"
	}
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func intPtr(v int) *int {
	return &v
}

func durationPtr(v time.Duration) *time.Duration {
	return &v
}
