package tools

import (
	"fmt"

	"orlop/internal/platform"
)

// OutcomeKind is the tri-state result of installing one tool.
type OutcomeKind int

const (
	OutcomeInstalled OutcomeKind = iota + 1
	OutcomeSkipped
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInstalled:
		return "installed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome records what happened to one tool. Err is set for skips as well as
// failures so callers can match the underlying kind with errors.Is.
type Outcome struct {
	Tool    string      `json:"tool"`
	Kind    OutcomeKind `json:"status"`
	Version string      `json:"version,omitempty"`
	Asset   string      `json:"asset,omitempty"`
	Path    string      `json:"path,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Err     error       `json:"-"`
}

func skipped(tool string, err error) Outcome {
	return Outcome{Tool: tool, Kind: OutcomeSkipped, Reason: err.Error(), Err: err}
}

func failed(tool string, err error) Outcome {
	return Outcome{Tool: tool, Kind: OutcomeFailed, Reason: err.Error(), Err: err}
}

// Report aggregates outcomes for one installer run in catalog order.
type Report struct {
	Platform platform.Key `json:"platform"`
	Outcomes []Outcome    `json:"tools"`
}

func (r Report) names(kind OutcomeKind) []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			out = append(out, o.Tool)
		}
	}
	return out
}

// Installed lists tools placed successfully.
func (r Report) Installed() []string { return r.names(OutcomeInstalled) }

// Skipped lists tools that were skipped with a warning.
func (r Report) Skipped() []string { return r.names(OutcomeSkipped) }

// Failed lists tools whose install failed.
func (r Report) Failed() []string { return r.names(OutcomeFailed) }

// Err returns a *RunError when any tool failed.
func (r Report) Err() error {
	if failed := r.Failed(); len(failed) > 0 {
		return &RunError{Failed: failed}
	}
	return nil
}

// Summary is a one-line count suitable for the end of a run.
func (r Report) Summary() string {
	return fmt.Sprintf("%d installed, %d skipped, %d failed", len(r.Installed()), len(r.Skipped()), len(r.Failed()))
}
