package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"orlop/internal/config"
	"orlop/internal/logx"
	"orlop/internal/paths"
	"orlop/internal/platform"
	"orlop/internal/tools"
)

// env is the resolved state every command starts from.
type env struct {
	cfg     config.Config
	layout  paths.Layout
	catalog *tools.Catalog
	fs      afero.Fs
}

// loadEnv reads the config file, resolves the host platform and install root,
// and merges config tool overrides over the embedded catalog.
func loadEnv() (env, error) {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return env{}, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return env{}, err
	}
	if verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Debug = true
	}

	key, err := platform.Current()
	if err != nil {
		return env{}, err
	}
	layout, err := paths.Resolve(rootDir, cfg, key)
	if err != nil {
		return env{}, err
	}
	catalog, err := tools.LoadCatalog(cfg.Tools)
	if err != nil {
		return env{}, err
	}

	return env{
		cfg:     cfg,
		layout:  layout,
		catalog: catalog,
		fs:      afero.NewOsFs(),
	}, nil
}

// requireValidConfig rejects configs with error-level findings.
func requireValidConfig(cfg config.Config) error {
	errs := config.Errors(cfg.Validate())
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, r := range errs {
		msgs[i] = r.Message
	}
	return fmt.Errorf("invalid config: %s (see 'orlop config')", strings.Join(msgs, "; "))
}

func (e env) logger() (*logrus.Logger, io.Closer, error) {
	return logx.New(e.layout.LogsDir, e.cfg.Log)
}

// Seams for tests; production commands talk to GitHub over HTTP.
var (
	newReleaseSource = func(e env, refresh bool) tools.ReleaseSource {
		src := tools.NewCachedSource(
			tools.NewGitHubSource(e.cfg.GitHubToken),
			e.fs,
			e.layout.ReleaseCacheFile,
			e.cfg.Install.ReleaseCacheTTLValue(),
		)
		src.Refresh = refresh
		return src
	}
	newFetcher = func(e env) tools.Fetcher {
		return tools.NewHTTPFetcher(e.fs, e.cfg.Install.RetriesValue())
	}
)
