package tools

import (
	"time"

	"github.com/spf13/afero"

	"orlop/internal/paths"
)

// Detect returns the status of every catalog tool on layout's platform, in
// catalog order. Versions come from the manifest; presence comes from disk.
func Detect(fs afero.Fs, catalog *Catalog, layout paths.Layout) ([]Status, error) {
	manifest, err := LoadManifest(fs, layout.ManifestFile)
	if err != nil {
		return nil, err
	}

	var statuses []Status
	for _, def := range catalog.Tools() {
		statuses = append(statuses, detectOne(fs, def, layout, manifest.Entries[def.Name]))
	}
	return statuses, nil
}

func detectOne(fs afero.Fs, def ToolMetadata, layout paths.Layout, entry ManifestEntry) Status {
	status := Status{
		Tool:    def.Name,
		Binary:  def.Binary,
		Repo:    def.Repo,
		Aliases: def.Aliases,
		State:   StateMissing,
	}

	if _, ok := def.ForPlatform(layout.Platform); !ok {
		status.State = StateUnavailable
		return status
	}

	path := layout.ToolPath(def.Name, def.Binary)
	info, err := fs.Stat(path)
	if err != nil || info.IsDir() {
		return status
	}

	status.State = StateInstalled
	status.Path = path
	if entry.Tool != "" {
		status.Version = entry.Version
		if !entry.InstalledAt.IsZero() {
			status.InstalledAt = entry.InstalledAt.Format(time.RFC3339)
		}
	}
	return status
}
