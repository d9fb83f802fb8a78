package tools

import (
	"time"

	"orlop/internal/platform"
)

// State describes whether a tool's binary is present for the current platform.
type State string

const (
	StateInstalled   State = "installed"
	StateMissing     State = "missing"
	StateUnavailable State = "unavailable"
)

// Status captures the resolved state for a managed tool.
type Status struct {
	Tool        string   `json:"tool"`
	Binary      string   `json:"binary"`
	Repo        string   `json:"repo"`
	Aliases     []string `json:"aliases,omitempty"`
	State       State    `json:"state"`
	Version     string   `json:"version,omitempty"`
	Path        string   `json:"path,omitempty"`
	InstalledAt string   `json:"installed_at,omitempty"`
}

// PlatformConfig selects and unpacks the release asset for one platform.
type PlatformConfig struct {
	Pattern     string
	ExtractPath string
	NoExtract   bool
}

// ToolMetadata contains everything the installer needs to manage a tool.
type ToolMetadata struct {
	Name        string
	Repo        string
	Binary      string
	Description string
	Aliases     []string
	Platforms   map[platform.Key]PlatformConfig
}

// ForPlatform returns the asset selection for key, if the tool ships one.
func (t ToolMetadata) ForPlatform(key platform.Key) (PlatformConfig, bool) {
	pc, ok := t.Platforms[key]
	return pc, ok
}

// ManifestEntry records one installed tool.
type ManifestEntry struct {
	Tool        string    `json:"tool"`
	Repo        string    `json:"repo"`
	Version     string    `json:"version"`
	Asset       string    `json:"asset"`
	Path        string    `json:"path"`
	InstalledAt time.Time `json:"installed_at"`
}

// Manifest wraps persisted entries for quick lookup.
type Manifest struct {
	Platform platform.Key             `json:"platform"`
	Entries  map[string]ManifestEntry `json:"entries"`
}
