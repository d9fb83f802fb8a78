package tools

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// IsNewer reports whether latest is a newer release than installed. Tags that
// do not parse as semver (e.g. RELEASE.2024-01-31T07-53-03Z) are compared by
// string inequality.
func IsNewer(installed, latest string) bool {
	installed = strings.TrimPrefix(strings.TrimSpace(installed), "v")
	latest = strings.TrimPrefix(strings.TrimSpace(latest), "v")
	if latest == "" {
		return false
	}
	if installed == "" {
		return true
	}

	iv, ierr := semver.NewVersion(installed)
	lv, lerr := semver.NewVersion(latest)
	if ierr != nil || lerr != nil {
		return installed != latest
	}
	return lv.GreaterThan(iv)
}

// VersionLine returns the first non-empty line of a --version probe.
func VersionLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
