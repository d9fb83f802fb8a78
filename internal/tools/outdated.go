package tools

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"orlop/internal/paths"
)

// Update compares one installed tool against its latest release.
type Update struct {
	Tool      string `json:"tool"`
	Installed string `json:"installed"`
	Latest    string `json:"latest,omitempty"`
	Outdated  bool   `json:"outdated"`
	Error     string `json:"error,omitempty"`
}

// CheckOutdated queries the latest release of every tool recorded in the
// manifest. Lookup failures are reported per tool.
func CheckOutdated(ctx context.Context, fs afero.Fs, catalog *Catalog, layout paths.Layout, source ReleaseSource) ([]Update, error) {
	manifest, err := LoadManifest(fs, layout.ManifestFile)
	if err != nil {
		return nil, err
	}

	var updates []Update
	for _, def := range catalog.Tools() {
		entry, ok := manifest.Entries[def.Name]
		if !ok {
			continue
		}
		u := Update{Tool: def.Name, Installed: entry.Version}
		release, err := source.Latest(ctx, def.Repo)
		if err != nil {
			if ctx.Err() != nil {
				return updates, ctx.Err()
			}
			u.Error = fmt.Errorf("%w for %s: %w", ErrReleaseFetchFailed, def.Repo, err).Error()
			updates = append(updates, u)
			continue
		}
		u.Latest = release.Version()
		u.Outdated = IsNewer(entry.Version, u.Latest)
		updates = append(updates, u)
	}
	return updates, nil
}
