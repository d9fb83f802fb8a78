package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"orlop/internal/config"
	"orlop/internal/paths"
	"orlop/internal/platform"
	"orlop/internal/tools"
)

const testConfig = `install:
  jobs: 1
tools:
  - name: hello
    repo: example/hello
    binary: hello
    description: Test greeter
    aliases: [hi]
    platforms:
      linux-x64:
        pattern: hello-{version}
        no_extract: true
      linux-arm64:
        pattern: hello-{version}
        no_extract: true
      darwin-x64:
        pattern: hello-{version}
        no_extract: true
      darwin-arm64:
        pattern: hello-{version}
        no_extract: true
`

// helloScript exits 3 so routed invocations have a recognisable code.
const helloScript = "#!/bin/sh\nexit 3\n"

type testEnv struct {
	root    string
	cfgPath string
	key     platform.Key
	source  *stubSource
}

func (te testEnv) layout() paths.Layout {
	return paths.New(te.root, te.key)
}

func setupEnv(t *testing.T) testEnv {
	t.Helper()
	key, err := platform.Current()
	if err != nil {
		t.Skipf("host platform not supported: %v", err)
	}

	dir := t.TempDir()
	te := testEnv{
		root:    filepath.Join(dir, "root"),
		cfgPath: filepath.Join(dir, "config.yaml"),
		key:     key,
		source:  &stubSource{tag: "v1.0.0"},
	}
	require.NoError(t, os.WriteFile(te.cfgPath, []byte(testConfig), 0o644))

	t.Setenv(config.PathEnv, te.cfgPath)
	t.Setenv(paths.RootEnv, te.root)
	t.Setenv(config.DebugEnv, "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	t.Setenv("CI", "1")

	prevSource, prevFetcher := newReleaseSource, newFetcher
	newReleaseSource = func(env, bool) tools.ReleaseSource { return te.source }
	newFetcher = func(env) tools.Fetcher { return scriptFetcher{body: helloScript} }
	t.Cleanup(func() {
		newReleaseSource, newFetcher = prevSource, prevFetcher
	})
	return te
}

type stubSource struct {
	mu  sync.Mutex
	tag string
	err error
}

func (s *stubSource) set(tag string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tag, s.err = tag, err
}

func (s *stubSource) Latest(_ context.Context, repo string) (tools.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return tools.Release{}, s.err
	}
	version := s.tag[1:]
	return tools.Release{
		TagName: s.tag,
		Assets: []tools.Asset{
			{Name: "hello-" + version + ".sha256", URL: "https://example.invalid/" + repo + "/sum"},
			{Name: "hello-" + version, URL: "https://example.invalid/" + repo + "/bin"},
		},
	}, nil
}

type scriptFetcher struct {
	body string
}

func (f scriptFetcher) Fetch(_ context.Context, _ string, dest string) error {
	return os.WriteFile(dest, []byte(f.body), 0o644)
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func installHello(t *testing.T) {
	t.Helper()
	code, _, stderr := run(t, "install", "hello")
	require.Equal(t, 0, code, stderr)
}

var errOffline = errors.New("offline")
