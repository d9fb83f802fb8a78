package tools

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPlatformConfigAbsent means the tool ships nothing for this platform.
	// Installs report it as a skip, not a failure.
	ErrPlatformConfigAbsent = errors.New("no release configured for platform")
	// ErrUnsupportedArchive means the asset format cannot be unpacked. Installs
	// report it as a skip, not a failure.
	ErrUnsupportedArchive = errors.New("unsupported archive format")

	ErrReleaseFetchFailed = errors.New("release fetch failed")
	ErrAssetNotFound      = errors.New("no matching release asset")
	ErrDownloadFailed     = errors.New("download failed")
	ErrBinaryMissing      = errors.New("expected binary missing after extraction")
	ErrRateLimited        = errors.New("release API rate limit exceeded")
	ErrUnknownTool        = errors.New("unknown tool")
)

// AssetNotFoundError lists what the release actually offered so pattern drift
// can be fixed without rerunning.
type AssetNotFoundError struct {
	Tool      string
	Pattern   string
	Release   string
	Available []string
}

func (e *AssetNotFoundError) Error() string {
	available := "(none)"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("no asset matching pattern %q in %s release %s; available: %s", e.Pattern, e.Tool, e.Release, available)
}

func (e *AssetNotFoundError) Is(target error) bool {
	return target == ErrAssetNotFound
}

// BinaryMissingError reports an archive that did not contain the configured
// extract path.
type BinaryMissingError struct {
	Tool        string
	Asset       string
	ExtractPath string
	Path        string
}

func (e *BinaryMissingError) Error() string {
	return fmt.Sprintf("binary not found at expected path %s (extract_path %q in %s)", e.Path, e.ExtractPath, e.Asset)
}

func (e *BinaryMissingError) Is(target error) bool {
	return target == ErrBinaryMissing
}

// RunError is returned when at least one tool failed to install.
type RunError struct {
	Failed []string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%d tool(s) failed: %s", len(e.Failed), strings.Join(e.Failed, ", "))
}
