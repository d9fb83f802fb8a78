package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// HostInfo describes the machine orlop runs on. Distribution fields are
// best effort and stay empty when detection fails.
type HostInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Key           Key    `json:"key,omitempty"`
	Platform      string `json:"platform,omitempty"`
	Family        string `json:"family,omitempty"`
	Version       string `json:"version,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	KeyError      string `json:"key_error,omitempty"`
}

// Describe gathers host details for diagnostics. Only context cancellation is
// reported as an error; other lookup failures degrade to OS/arch only.
func Describe(ctx context.Context) (HostInfo, error) {
	info := HostInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	key, err := Current()
	if err != nil {
		info.KeyError = err.Error()
	} else {
		info.Key = key
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return HostInfo{}, fmt.Errorf("host detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}
	info.Platform = platform
	info.Family = family
	info.Version = version

	if kernel, err := host.KernelVersionWithContext(ctx); err == nil {
		info.KernelVersion = kernel
	}
	return info, nil
}
