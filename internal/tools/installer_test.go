package tools

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orlop/internal/config"
	"orlop/internal/paths"
	"orlop/internal/platform"
)

const testVersion = "1.2.3"

type fakeSource struct {
	mu       sync.Mutex
	releases map[string]Release
	errs     map[string]error
	calls    map[string]int
}

func (s *fakeSource) Latest(_ context.Context, repo string) (Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[repo]++
	if err, ok := s.errs[repo]; ok {
		return Release{}, err
	}
	r, ok := s.releases[repo]
	if !ok {
		return Release{}, fmt.Errorf("no release for %s", repo)
	}
	return r, nil
}

type fakeFetcher struct {
	fs    afero.Fs
	mu    sync.Mutex
	blobs map[string][]byte
	errs  map[string]error
	urls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, dest string) error {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	err, failing := f.errs[url]
	data, ok := f.blobs[url]
	f.mu.Unlock()
	if failing {
		return err
	}
	if !ok {
		return fmt.Errorf("download %s: unexpected status 404 Not Found", url)
	}
	return afero.WriteFile(f.fs, dest, data, 0o644)
}

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		if dir := filepath.Dir(name); dir != "." {
			require.NoError(t, tw.WriteHeader(&tar.Header{Name: dir + "/", Typeflag: tar.TypeDir, Mode: 0o755}))
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

var assetNamer = strings.NewReplacer("{version}", testVersion, "{datetime}", "2024-01-31T07-53-03")

// fixture wires an installer over an in-memory filesystem with one release per
// catalog tool, each carrying a well-formed asset for key.
type fixture struct {
	fs        afero.Fs
	layout    paths.Layout
	catalog   *Catalog
	source    *fakeSource
	fetcher   *fakeFetcher
	installer *Installer
}

func newFixture(t *testing.T, catalog *Catalog, key platform.Key) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	layout := paths.New("/orlop", key)
	f := &fixture{
		fs:      fs,
		layout:  layout,
		catalog: catalog,
		source:  &fakeSource{releases: map[string]Release{}, errs: map[string]error{}},
		fetcher: &fakeFetcher{fs: fs, blobs: map[string][]byte{}, errs: map[string]error{}},
	}
	for _, def := range catalog.Tools() {
		pc, ok := def.ForPlatform(key)
		if !ok {
			continue
		}
		asset := assetNamer.Replace(pc.Pattern)
		url := "https://example.test/" + def.Name + "/" + asset
		f.source.releases[def.Repo] = Release{
			TagName: "v" + testVersion,
			Assets: []Asset{
				{Name: asset + ".sha256", URL: url + ".sha256"},
				{Name: asset, URL: url},
			},
		}
		if pc.NoExtract {
			f.fetcher.blobs[url] = []byte("#!/bin/sh\necho " + def.Name + "\n")
			continue
		}
		inner := pc.ExtractPath
		if inner == "" {
			inner = def.Binary
		}
		inner = expandExtractPath(inner, testVersion, asset)
		files := map[string]string{inner: "binary " + def.Name}
		files[filepath.Join(filepath.Dir(inner), "README.md")] = "docs"
		f.fetcher.blobs[url] = tarGz(t, files)
	}
	f.installer = &Installer{
		Catalog: catalog,
		Layout:  layout,
		Source:  f.source,
		Fetcher: f.fetcher,
		Fs:      fs,
	}
	return f
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

// zipFreeCatalog swaps procs' linux-x64 zip for a tarball so every tool in the
// catalog is installable on linux-x64.
func zipFreeCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := testCatalog(t).Merge([]config.ToolEntry{{
		Name: "procs",
		Platforms: map[string]config.PlatformEntry{
			"linux-x64": {Pattern: "procs-v{version}-x86_64-linux.tar.gz", ExtractPath: "procs"},
		},
	}})
	require.NoError(t, err)
	return c
}

func assertExecutable(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	info, err := fs.Stat(path)
	require.NoError(t, err, "stat %s", path)
	assert.False(t, info.IsDir(), "%s is a directory", path)
	assert.NotZero(t, info.Mode().Perm()&0o111, "%s not executable (%v)", path, info.Mode())
}

func TestInstallAllOneFailureDoesNotAbortOthers(t *testing.T) {
	catalog := zipFreeCatalog(t)
	require.Len(t, catalog.Tools(), 17)

	f := newFixture(t, catalog, platform.LinuxX64)
	bat, _ := catalog.Definition("bat")
	url := f.source.releases[bat.Repo].Assets[1].URL
	f.fetcher.errs[url] = errors.New("connection reset by peer")

	report, err := f.installer.InstallAll(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"bat"}, report.Failed())
	assert.Empty(t, report.Skipped())
	assert.Len(t, report.Installed(), 16)

	runErr := report.Err()
	require.Error(t, runErr)
	var re *RunError
	require.ErrorAs(t, runErr, &re)
	assert.Equal(t, []string{"bat"}, re.Failed)
	assert.ErrorIs(t, report.Outcomes[1].Err, ErrDownloadFailed)

	for _, def := range catalog.Tools() {
		path := f.layout.ToolPath(def.Name, def.Binary)
		if def.Name == "bat" {
			_, statErr := f.fs.Stat(path)
			assert.Error(t, statErr, "bat should not be placed")
			continue
		}
		assertExecutable(t, f.fs, path)
	}

	names := make([]string, len(report.Outcomes))
	for i, o := range report.Outcomes {
		names[i] = o.Tool
	}
	assert.Equal(t, catalog.KnownTools(), names)
}

func TestInstallAllParallelKeepsCatalogOrder(t *testing.T) {
	catalog := zipFreeCatalog(t)
	f := newFixture(t, catalog, platform.LinuxX64)
	f.installer.Jobs = 4

	report, err := f.installer.InstallAll(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Len(t, report.Installed(), 17)

	for i, o := range report.Outcomes {
		assert.Equal(t, catalog.Tools()[i].Name, o.Tool)
	}
}

func TestInstallRipgrepPlacesBinaryAndCleansUp(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.LinuxX64)
	def, ok := f.catalog.Resolve("rg")
	require.True(t, ok)

	out := f.installer.Install(context.Background(), def)
	require.Equal(t, OutcomeInstalled, out.Kind, "reason: %s", out.Reason)
	assert.Equal(t, testVersion, out.Version)
	assert.Equal(t, "ripgrep-1.2.3-x86_64-unknown-linux-musl.tar.gz", out.Asset)

	final := filepath.Join("/orlop", "bin", "linux-x64", "ripgrep", "rg")
	assert.Equal(t, final, out.Path)
	assertExecutable(t, f.fs, final)

	body, err := afero.ReadFile(f.fs, final)
	require.NoError(t, err)
	assert.Equal(t, "binary ripgrep", string(body))

	entries, err := afero.ReadDir(f.fs, f.layout.ToolDir("ripgrep"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging archive and scratch dir should be gone")
	assert.Equal(t, "rg", entries[0].Name())
}

func TestInstallNoExtract(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.LinuxX64)
	def, _ := f.catalog.Definition("mc")

	out := f.installer.Install(context.Background(), def)
	require.Equal(t, OutcomeInstalled, out.Kind, "reason: %s", out.Reason)
	assert.Equal(t, "mc.RELEASE.2024-01-31T07-53-03Z.linux-amd64", out.Asset)
	assert.Equal(t, f.layout.ToolPath("mc", "mc"), out.Path)
	assertExecutable(t, f.fs, out.Path)

	_, err := f.fs.Stat(f.layout.StagingPath("mc", out.Asset))
	assert.Error(t, err, "download should have been renamed into place")
}

func TestInstallMissingExtractPath(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.LinuxX64)
	fd, _ := f.catalog.Definition("fd")
	url := f.source.releases[fd.Repo].Assets[1].URL
	f.fetcher.blobs[url] = tarGz(t, map[string]string{"elsewhere/fd": "binary"})

	report, err := f.installer.InstallAll(context.Background(), []string{"fd", "delta"})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 2)
	fdOut := report.Outcomes[0]
	assert.Equal(t, OutcomeFailed, fdOut.Kind)
	assert.ErrorIs(t, fdOut.Err, ErrBinaryMissing)
	var bm *BinaryMissingError
	require.ErrorAs(t, fdOut.Err, &bm)
	assert.Contains(t, bm.Path, "fd-v1.2.3-x86_64-unknown-linux-musl/fd")

	assert.Equal(t, OutcomeInstalled, report.Outcomes[1].Kind)
	assertExecutable(t, f.fs, f.layout.ToolPath("delta", "delta"))
}

func TestInstallAbsentPlatformIsSkipped(t *testing.T) {
	catalog, err := NewCatalog([]config.ToolEntry{{
		Name: "macos-only",
		Repo: "example/macos-only",
		Platforms: map[string]config.PlatformEntry{
			"darwin-arm64": {Pattern: "macos-only.tar.gz"},
		},
	}})
	require.NoError(t, err)
	f := newFixture(t, catalog, platform.LinuxX64)

	report, err := f.installer.InstallAll(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, []string{"macos-only"}, report.Skipped())
	assert.ErrorIs(t, report.Outcomes[0].Err, ErrPlatformConfigAbsent)
	assert.Empty(t, f.source.calls, "no release lookup expected")

	exists, err := afero.DirExists(f.fs, "/orlop")
	require.NoError(t, err)
	assert.False(t, exists, "nothing should be written")
}

func TestInstallZipAssetIsSkippedWithoutDownload(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.DarwinArm64)
	def, _ := f.catalog.Definition("gh")

	out := f.installer.Install(context.Background(), def)
	assert.Equal(t, OutcomeSkipped, out.Kind)
	assert.ErrorIs(t, out.Err, ErrUnsupportedArchive)
	assert.Equal(t, "gh_1.2.3_macOS_arm64.zip", out.Asset)
	assert.Empty(t, f.fetcher.urls)
}

func TestInstallAssetNotFoundListsAvailable(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.LinuxX64)
	def, _ := f.catalog.Definition("bat")
	f.source.releases[def.Repo] = Release{
		TagName: "v" + testVersion,
		Assets: []Asset{
			{Name: "bat-v1.2.3-x86_64-pc-windows-msvc.zip"},
			{Name: "bat-v1.2.3-i686-unknown-linux-gnu.tar.gz"},
		},
	}

	out := f.installer.Install(context.Background(), def)
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrAssetNotFound)
	assert.Contains(t, out.Reason, "bat-v1.2.3-x86_64-pc-windows-msvc.zip")
	assert.Contains(t, out.Reason, "bat-v1.2.3-i686-unknown-linux-gnu.tar.gz")
}

func TestInstallReleaseFetchFailure(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.LinuxX64)
	def, _ := f.catalog.Definition("fzf")
	f.source.errs[def.Repo] = fmt.Errorf("%w (403 Forbidden)", ErrRateLimited)

	out := f.installer.Install(context.Background(), def)
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.ErrorIs(t, out.Err, ErrReleaseFetchFailed)
	assert.ErrorIs(t, out.Err, ErrRateLimited)
}

func TestInstallIsIdempotent(t *testing.T) {
	f := newFixture(t, zipFreeCatalog(t), platform.LinuxX64)

	for run := 1; run <= 2; run++ {
		report, err := f.installer.InstallAll(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, report.Err(), "run %d", run)
		assert.Len(t, report.Installed(), 17, "run %d", run)
	}
	for _, def := range f.catalog.Tools() {
		assertExecutable(t, f.fs, f.layout.ToolPath(def.Name, def.Binary))
	}
}

func TestInstallAllRecordsManifest(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.LinuxX64)

	report, err := f.installer.InstallAll(context.Background(), []string{"rg", "mc", "procs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ripgrep", "mc"}, report.Installed())
	assert.Equal(t, []string{"procs"}, report.Skipped())

	m, err := LoadManifest(f.fs, f.layout.ManifestFile)
	require.NoError(t, err)
	assert.Equal(t, platform.LinuxX64, m.Platform)
	require.Contains(t, m.Entries, "ripgrep")
	assert.Equal(t, "BurntSushi/ripgrep", m.Entries["ripgrep"].Repo)
	assert.Equal(t, testVersion, m.Entries["ripgrep"].Version)
	assert.False(t, m.Entries["ripgrep"].InstalledAt.IsZero())
	assert.NotContains(t, m.Entries, "procs")

	statuses, err := Detect(f.fs, f.catalog, f.layout)
	require.NoError(t, err)
	byTool := map[string]Status{}
	for _, s := range statuses {
		byTool[s.Tool] = s
	}
	assert.Equal(t, StateInstalled, byTool["ripgrep"].State)
	assert.Equal(t, testVersion, byTool["ripgrep"].Version)
	assert.Equal(t, StateMissing, byTool["bat"].State)
}

func TestInstallAllUnknownTool(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.LinuxX64)
	_, err := f.installer.InstallAll(context.Background(), []string{"rg", "nope"})
	require.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "nope")
	assert.Empty(t, f.source.calls)
}

type recordingReporter struct {
	mu     sync.Mutex
	stages []string
	done   []Outcome
}

func (r *recordingReporter) Stage(tool string, stage Stage, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, tool+":"+string(stage))
}

func (r *recordingReporter) Done(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = append(r.done, o)
}

func TestInstallReportsStages(t *testing.T) {
	f := newFixture(t, testCatalog(t), platform.LinuxX64)
	rep := &recordingReporter{}
	f.installer.Reporter = rep

	_, err := f.installer.InstallAll(context.Background(), []string{"rg", "mc"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ripgrep:resolving", "ripgrep:downloading", "ripgrep:extracting",
		"mc:resolving", "mc:downloading",
	}, rep.stages)
	require.Len(t, rep.done, 2)
	assert.Equal(t, OutcomeInstalled, rep.done[1].Kind)
}

func TestInstallPlacesSymlinkTarget(t *testing.T) {
	catalog, err := NewCatalog([]config.ToolEntry{{
		Name:   "linked",
		Repo:   "example/linked",
		Binary: "linked",
		Platforms: map[string]config.PlatformEntry{
			"linux-x64": {Pattern: "linked-{version}.tar.gz", ExtractPath: "linked/bin/linked"},
		},
	}})
	require.NoError(t, err)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	body := "#!/bin/sh\necho linked\n"
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "linked/libexec/linked-1.2.3", Typeflag: tar.TypeReg, Mode: 0o755, Size: int64(len(body))}))
	_, err = tw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "linked/bin/linked", Typeflag: tar.TypeSymlink, Linkname: "../libexec/linked-1.2.3"}))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	fs := afero.NewOsFs()
	layout := paths.New(t.TempDir(), platform.LinuxX64)
	url := "https://example.test/linked/linked-1.2.3.tar.gz"
	inst := &Installer{
		Catalog: catalog,
		Layout:  layout,
		Source: &fakeSource{releases: map[string]Release{
			"example/linked": {TagName: "v" + testVersion, Assets: []Asset{{Name: "linked-1.2.3.tar.gz", URL: url}}},
		}},
		Fetcher: &fakeFetcher{fs: fs, blobs: map[string][]byte{url: buf.Bytes()}},
		Fs:      fs,
	}

	def, _ := catalog.Definition("linked")
	out := inst.Install(context.Background(), def)
	require.Equal(t, OutcomeInstalled, out.Kind, "reason: %s", out.Reason)

	info, err := os.Lstat(out.Path)
	require.NoError(t, err)
	assert.Zero(t, info.Mode()&os.ModeSymlink, "placed binary should be the link target, not the link")
	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}
