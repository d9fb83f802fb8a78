package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"orlop/internal/platform"
)

// LoadManifest reads the install manifest at path. A missing file yields an
// empty manifest.
func LoadManifest(fs afero.Fs, path string) (Manifest, error) {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{Entries: map[string]ManifestEntry{}}, nil
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(contents, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if manifest.Entries == nil {
		manifest.Entries = map[string]ManifestEntry{}
	}
	return manifest, nil
}

// SaveManifest writes m to path through a temp file and rename.
func SaveManifest(fs afero.Fs, path string, m Manifest) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare manifest directory: %w", err)
	}

	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp, err := afero.TempFile(fs, filepath.Dir(path), "manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	// In-memory files report their new name after a rename.
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest temp: %w", err)
	}

	if err := fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	committed = true
	return nil
}

// Record folds installed outcomes into the manifest. Entries for tools that
// were skipped or failed are left as they were.
func (m *Manifest) Record(key platform.Key, catalog *Catalog, outcomes []Outcome, now time.Time) {
	if m.Entries == nil {
		m.Entries = map[string]ManifestEntry{}
	}
	m.Platform = key
	for _, o := range outcomes {
		if o.Kind != OutcomeInstalled {
			continue
		}
		entry := ManifestEntry{
			Tool:        o.Tool,
			Version:     o.Version,
			Asset:       o.Asset,
			Path:        o.Path,
			InstalledAt: now.UTC(),
		}
		if def, ok := catalog.Definition(o.Tool); ok {
			entry.Repo = def.Repo
		}
		m.Entries[o.Tool] = entry
	}
}
