package tui

import (
	"io"
	"os"
	"strings"
)

// OutputMode describes how progress output should be rendered.
type OutputMode int

const (
	// ModeTUI redraws a live table while tools install.
	ModeTUI OutputMode = iota
	// ModePlain prints one line per finished tool.
	ModePlain
	// ModeJSON writes the final report as JSON.
	ModeJSON
)

// DetectMode picks the output mode for out. Live rendering needs a character
// device, a usable TERM, and no CI marker in the environment.
func DetectMode(out io.Writer, noProgress, jsonOutput bool) OutputMode {
	if jsonOutput {
		return ModeJSON
	}
	if noProgress || os.Getenv("CI") != "" {
		return ModePlain
	}
	if !IsTerminal(out) {
		return ModePlain
	}
	term := os.Getenv("TERM")
	if term == "" || strings.EqualFold(term, "dumb") {
		return ModePlain
	}
	return ModeTUI
}

// IsTerminal reports whether out is an interactive terminal.
func IsTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
