package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"orlop/internal/config"
	"orlop/internal/tools"
	"orlop/internal/tui"
)

var (
	installJobs       int
	installRefresh    bool
	installNoProgress bool
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [tool...]",
		Short: "Download the latest release of managed tools",
		Long: `Download the latest upstream release of each named tool, or every tool in
the catalog when none are named, into the platform directory under the
install root. Tools without a release for this platform, or shipped only as
zip archives, are skipped with a warning. The command fails if any tool
failed to install.`,
		RunE: runInstall,
	}

	cmd.Flags().IntVarP(&installJobs, "jobs", "j", 0, "Install this many tools concurrently (default from config)")
	cmd.Flags().BoolVar(&installRefresh, "refresh", false, "Ignore cached release lookups")
	cmd.Flags().BoolVar(&installNoProgress, "no-progress", false, "Print one line per tool instead of the live table")

	return cmd
}

func runInstall(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if err := requireValidConfig(e.cfg); err != nil {
		return err
	}
	if err := e.layout.EnsureDirs(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, installNoProgress, outputJSON)
	e.cfg.Log = logConfigFor(e.cfg.Log, mode)

	log, closer, err := e.logger()
	if err != nil {
		return err
	}
	defer closer.Close()

	jobs := e.cfg.Install.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs = installJobs
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.Install.Timeout)
	defer cancel()

	inst := &tools.Installer{
		Catalog: e.catalog,
		Layout:  e.layout,
		Source:  newReleaseSource(e, installRefresh),
		Fetcher: newFetcher(e),
		Fs:      e.fs,
		Log:     log,
		Jobs:    jobs,
	}
	defs, err := inst.Select(args)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"platform": e.layout.Platform,
		"tools":    len(defs),
		"jobs":     jobs,
	}).Info("install started")

	var report tools.Report

	switch mode {
	case tui.ModeTUI:
		model := tui.NewProgressModel(fmt.Sprintf("orlop install (%s)", e.layout.Platform), tui.InstallColumns)
		for _, def := range defs {
			model.AddRow(def.Name, tui.InstallRow(def.Name))
		}
		var installErr error
		runErr := tui.RunWithWork(out, model, func(send func(tea.Msg)) {
			inst.Reporter = tui.NewInstallReporter(send)
			report, installErr = inst.InstallAll(ctx, args)
		}, cancel)
		if err := errors.Join(runErr, installErr); err != nil {
			return err
		}
	case tui.ModePlain:
		inst.Reporter = newLineReporter(out)
		report, err = inst.InstallAll(ctx, args)
		if err != nil {
			return err
		}
	case tui.ModeJSON:
		report, err = inst.InstallAll(ctx, args)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
	}

	if !outputJSON {
		fmt.Fprintln(out, report.Summary())
	}
	log.WithField("summary", report.Summary()).Info("install finished")

	if err := report.Err(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return errors.Join(err, fmt.Errorf("install timed out after %s", e.cfg.Install.Timeout))
		}
		return err
	}
	return nil
}

// logConfigFor keeps debug output in the log file while the live table owns
// the terminal.
func logConfigFor(cfg config.LogConfig, mode tui.OutputMode) config.LogConfig {
	if mode == tui.ModeTUI {
		cfg.Debug = false
	}
	return cfg
}

// lineReporter prints one line per finished tool, for pipes and CI logs.
type lineReporter struct {
	mu  sync.Mutex
	out io.Writer
}

func newLineReporter(out io.Writer) *lineReporter {
	return &lineReporter{out: out}
}

func (r *lineReporter) Stage(string, tools.Stage, string) {}

func (r *lineReporter) Done(o tools.Outcome) {
	fields := tui.OutcomeFields(o)
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%-10s %-9s %-14s %s\n", o.Tool, fields["STATUS"], fields["VERSION"], fields["DETAIL"])
}
