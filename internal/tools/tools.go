package tools

import (
	"context"
	"time"

	"orlop/internal/runner"
)

// ToolInfo captures whether an installed binary actually runs.
type ToolInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Probe runs `<binary> --version` for every installed status, in order.
func Probe(ctx context.Context, statuses []Status) []ToolInfo {
	var out []ToolInfo
	for _, st := range statuses {
		if st.State != StateInstalled {
			continue
		}
		out = append(out, probeOne(ctx, st))
	}
	return out
}

func probeOne(ctx context.Context, st Status) ToolInfo {
	info := ToolInfo{Name: st.Tool, Path: st.Path}
	res, err := runner.Run(ctx, st.Path, []string{"--version"}, runner.Options{Timeout: 5 * time.Second})
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	info.Version = VersionLine(res.Stdout)
	if info.Version == "" {
		info.Version = VersionLine(res.Stderr)
	}
	return info
}
