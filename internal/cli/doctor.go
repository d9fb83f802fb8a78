package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"orlop/internal/config"
	"orlop/internal/platform"
	"orlop/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the platform, config and installed tools",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

type doctorReport struct {
	Host   platform.HostInfo `json:"host"`
	Checks []healthCheck     `json:"checks"`
	Tools  []tools.ToolInfo  `json:"tools,omitempty"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	var report doctorReport

	host, err := platform.Describe(ctx)
	if err != nil {
		return err
	}
	report.Host = host
	report.Checks = append(report.Checks, checkPlatform(host))

	cfgPath, pathErr := config.DefaultPath()
	var (
		cfg    config.Config
		cfgErr = pathErr
	)
	if pathErr == nil {
		cfg, cfgErr = config.Load(cfgPath)
	}
	report.Checks = append(report.Checks, checkConfig(cfgPath, cfg, cfgErr))

	if host.Key == "" || cfgErr != nil {
		return writeDoctorResult(cmd.OutOrStdout(), report)
	}

	e, err := loadEnv()
	if err != nil {
		report.Checks = append(report.Checks, healthCheck{Name: "Root", Status: "error", Summary: err.Error()})
		return writeDoctorResult(cmd.OutOrStdout(), report)
	}
	report.Checks = append(report.Checks, healthCheck{Name: "Root", Status: "ok", Summary: e.layout.Root})

	statuses, err := tools.Detect(e.fs, e.catalog, e.layout)
	if err != nil {
		report.Checks = append(report.Checks, healthCheck{Name: "Tools", Status: "error", Summary: err.Error()})
		return writeDoctorResult(cmd.OutOrStdout(), report)
	}
	report.Checks = append(report.Checks, checkInstalled(statuses))

	report.Tools = tools.Probe(ctx, statuses)
	report.Checks = append(report.Checks, checkProbes(report.Tools))

	return writeDoctorResult(cmd.OutOrStdout(), report)
}

func checkPlatform(host platform.HostInfo) healthCheck {
	if host.Key == "" {
		return healthCheck{Name: "Platform", Status: "error", Summary: host.KeyError}
	}
	summary := string(host.Key)
	if desc := joinComma(nonEmpty(host.Platform, host.Family, host.Version)); desc != "" {
		summary += " (" + desc + ")"
	}
	if host.KernelVersion != "" {
		summary += ", kernel " + host.KernelVersion
	}
	return healthCheck{Name: "Platform", Status: "ok", Summary: summary}
}

func checkConfig(path string, cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	var warnings, errors int
	for _, v := range cfg.Validate() {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errors++
		}
	}

	summary := path
	if len(cfg.Tools) > 0 {
		summary += fmt.Sprintf("; %d tool overrides", len(cfg.Tools))
	}
	if errors > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%s; %d errors", summary, errors)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkInstalled(statuses []tools.Status) healthCheck {
	var installed int
	var missing []string
	for _, st := range statuses {
		switch st.State {
		case tools.StateInstalled:
			installed++
		case tools.StateMissing:
			missing = append(missing, st.Tool)
		}
	}

	summary := fmt.Sprintf("%d of %d tools installed", installed, len(statuses))
	if len(missing) == 0 {
		return healthCheck{Name: "Tools", Status: "ok", Summary: summary}
	}
	return healthCheck{
		Name:    "Tools",
		Status:  "warning",
		Summary: fmt.Sprintf("%s; missing: %s", summary, joinComma(missing)),
	}
}

func checkProbes(infos []tools.ToolInfo) healthCheck {
	var broken []string
	for _, info := range infos {
		if !info.Available {
			broken = append(broken, info.Name)
		}
	}
	if len(broken) > 0 {
		return healthCheck{Name: "Runnable", Status: "error", Summary: "failed --version: " + joinComma(broken)}
	}
	return healthCheck{Name: "Runnable", Status: "ok", Summary: fmt.Sprintf("%d binaries answered --version", len(infos))}
}

func writeDoctorResult(out io.Writer, report doctorReport) error {
	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	fmt.Fprintln(out, bold.Render("ORLOP HEALTH:")+" "+report.Host.OS+"/"+report.Host.Arch)

	for _, c := range report.Checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	if len(report.Tools) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, bold.Render("INSTALLED:"))
		for _, info := range report.Tools {
			detail := info.Version
			if !info.Available {
				detail = red.Render(info.Error)
			}
			fmt.Fprintf(out, "  %-12s %s\n", info.Name, detail)
		}
	}
	return nil
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}
