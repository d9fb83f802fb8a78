package tools

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"orlop/internal/paths"
)

// Stage names the step a tool install is currently in.
type Stage string

const (
	StageResolving   Stage = "resolving"
	StageDownloading Stage = "downloading"
	StageExtracting  Stage = "extracting"
)

// Reporter receives progress for each tool. Implementations must be safe for
// concurrent use when Jobs > 1.
type Reporter interface {
	Stage(tool string, stage Stage, detail string)
	Done(outcome Outcome)
}

type nopReporter struct{}

func (nopReporter) Stage(string, Stage, string) {}
func (nopReporter) Done(Outcome)                {}

// Installer fetches catalog tools into Layout. Network and filesystem access
// go through Source, Fetcher and Fs.
type Installer struct {
	Catalog  *Catalog
	Layout   paths.Layout
	Source   ReleaseSource
	Fetcher  Fetcher
	Fs       afero.Fs
	Log      logrus.FieldLogger
	Reporter Reporter
	Jobs     int

	now func() time.Time
}

func (i *Installer) logger() logrus.FieldLogger {
	if i.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return i.Log
}

func (i *Installer) reporter() Reporter {
	if i.Reporter == nil {
		return nopReporter{}
	}
	return i.Reporter
}

func (i *Installer) clock() time.Time {
	if i.now == nil {
		return time.Now()
	}
	return i.now()
}

// extractDirName is the scratch directory archives are unpacked into, inside
// the tool's directory.
const extractDirName = ".extract"

// InstallAll installs the named tools, or the whole catalog when names is
// empty. The returned error covers unknown names only; per-tool failures are
// in the report, and Report.Err summarises them.
func (i *Installer) InstallAll(ctx context.Context, names []string) (Report, error) {
	defs, err := i.Select(names)
	if err != nil {
		return Report{}, err
	}

	outcomes := make([]Outcome, len(defs))
	if i.Jobs > 1 {
		var g errgroup.Group
		g.SetLimit(i.Jobs)
		for idx, def := range defs {
			g.Go(func() error {
				outcomes[idx] = i.Install(ctx, def)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for idx, def := range defs {
			outcomes[idx] = i.Install(ctx, def)
		}
	}

	report := Report{Platform: i.Layout.Platform, Outcomes: outcomes}
	i.recordManifest(report)
	return report, nil
}

// Select resolves names and aliases to catalog entries, dropping duplicates.
// An empty list selects the whole catalog.
func (i *Installer) Select(names []string) ([]ToolMetadata, error) {
	if len(names) == 0 {
		return i.Catalog.Tools(), nil
	}
	var (
		defs    []ToolMetadata
		unknown []string
		seen    = map[string]bool{}
	)
	for _, name := range names {
		def, ok := i.Catalog.Resolve(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		defs = append(defs, def)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, strings.Join(unknown, ", "))
	}
	return defs, nil
}

func (i *Installer) recordManifest(report Report) {
	if len(report.Installed()) == 0 {
		return
	}
	log := i.logger()
	manifest, err := LoadManifest(i.Fs, i.Layout.ManifestFile)
	if err != nil {
		log.WithError(err).Warn("manifest unreadable; starting a new one")
		manifest = Manifest{}
	}
	manifest.Record(report.Platform, i.Catalog, report.Outcomes, i.clock())
	if err := SaveManifest(i.Fs, i.Layout.ManifestFile, manifest); err != nil {
		log.WithError(err).Warn("failed to save install manifest")
	}
}

// Install runs the fetch, match, download, extract and place sequence for one
// tool. It never panics on tool errors; everything is reported in the Outcome.
func (i *Installer) Install(ctx context.Context, def ToolMetadata) Outcome {
	log := i.logger().WithFields(logrus.Fields{
		"tool":     def.Name,
		"platform": i.Layout.Platform,
	})
	out := i.install(ctx, def, log)
	switch out.Kind {
	case OutcomeInstalled:
		log.WithFields(logrus.Fields{"version": out.Version, "path": out.Path}).Info("installed")
	case OutcomeSkipped:
		log.WithError(out.Err).Warn("skipped")
	case OutcomeFailed:
		log.WithError(out.Err).Error("install failed")
	}
	i.reporter().Done(out)
	return out
}

func (i *Installer) install(ctx context.Context, def ToolMetadata, log logrus.FieldLogger) Outcome {
	rep := i.reporter()

	pc, ok := def.ForPlatform(i.Layout.Platform)
	if !ok {
		return skipped(def.Name, fmt.Errorf("%w %s", ErrPlatformConfigAbsent, i.Layout.Platform))
	}

	rep.Stage(def.Name, StageResolving, def.Repo)
	release, err := i.Source.Latest(ctx, def.Repo)
	if err != nil {
		return failed(def.Name, fmt.Errorf("%w for %s: %w", ErrReleaseFetchFailed, def.Repo, err))
	}
	version := release.Version()
	log.WithField("version", version).Debug("resolved latest release")

	matcher, err := NewMatcher(pc.Pattern, version)
	if err != nil {
		return failed(def.Name, err)
	}
	asset, ok := matcher.Select(release.Assets)
	if !ok {
		return failed(def.Name, &AssetNotFoundError{
			Tool:      def.Name,
			Pattern:   pc.Pattern,
			Release:   release.TagName,
			Available: release.AssetNames(),
		})
	}

	format := ClassifyAsset(pc, asset.Name)
	if format == FormatUnsupported {
		out := skipped(def.Name, fmt.Errorf("%w: %s", ErrUnsupportedArchive, asset.Name))
		out.Version, out.Asset = version, asset.Name
		return out
	}

	staging := i.Layout.StagingPath(def.Name, asset.Name)
	rep.Stage(def.Name, StageDownloading, asset.Name)
	if err := i.Fs.MkdirAll(filepath.Dir(staging), 0o755); err != nil {
		return failed(def.Name, fmt.Errorf("%w: prepare %s: %w", ErrDownloadFailed, filepath.Dir(staging), err))
	}
	if err := i.Fetcher.Fetch(ctx, asset.URL, staging); err != nil {
		return failed(def.Name, fmt.Errorf("%w: %w", ErrDownloadFailed, err))
	}

	final := i.Layout.ToolPath(def.Name, def.Binary)
	switch format {
	case FormatNone:
		if err := i.place(staging, final); err != nil {
			return failed(def.Name, err)
		}
	case FormatTarGz:
		rep.Stage(def.Name, StageExtracting, asset.Name)
		if err := i.extractAndPlace(def, pc, version, asset.Name, staging, final); err != nil {
			return failed(def.Name, err)
		}
	}

	if err := i.Fs.Chmod(final, 0o755); err != nil {
		return failed(def.Name, fmt.Errorf("mark %s executable: %w", final, err))
	}

	return Outcome{
		Tool:    def.Name,
		Kind:    OutcomeInstalled,
		Version: version,
		Asset:   asset.Name,
		Path:    final,
	}
}

func (i *Installer) extractAndPlace(def ToolMetadata, pc PlatformConfig, version, asset, archive, final string) error {
	scratch := filepath.Join(i.Layout.ToolDir(def.Name), extractDirName)
	_ = i.Fs.RemoveAll(scratch)
	defer func() { _ = i.Fs.RemoveAll(scratch) }()

	if err := extractTarGz(i.Fs, archive, scratch); err != nil {
		return fmt.Errorf("extract %s: %w", asset, err)
	}

	rel := pc.ExtractPath
	if rel == "" {
		rel = def.Binary
	}
	rel = filepath.Clean(filepath.FromSlash(expandExtractPath(rel, version, asset)))
	src := filepath.Join(scratch, rel)

	info, err := i.Fs.Stat(src)
	if err != nil || info.IsDir() {
		return &BinaryMissingError{Tool: def.Name, Asset: asset, ExtractPath: rel, Path: src}
	}
	// Move the file a symlinked binary points at, not the link itself.
	resolved, err := resolveInTree(i.Fs, scratch, src)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", rel, err)
	}
	if err := i.place(resolved, final); err != nil {
		return err
	}

	if err := i.Fs.Remove(archive); err != nil {
		return fmt.Errorf("remove archive %s: %w", archive, err)
	}
	return nil
}

// place moves src onto dst, replacing whatever was there.
func (i *Installer) place(src, dst string) error {
	if src == dst {
		return nil
	}
	if info, err := i.Fs.Stat(dst); err == nil {
		if info.IsDir() {
			err = i.Fs.RemoveAll(dst)
		} else {
			err = i.Fs.Remove(dst)
		}
		if err != nil {
			return fmt.Errorf("replace %s: %w", dst, err)
		}
	}
	if err := i.Fs.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	return nil
}
