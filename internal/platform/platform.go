package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Key identifies a supported operating system and architecture pair. The
// values double as directory names under the bin root.
type Key string

const (
	LinuxX64    Key = "linux-x64"
	LinuxArm64  Key = "linux-arm64"
	DarwinX64   Key = "darwin-x64"
	DarwinArm64 Key = "darwin-arm64"
)

// ErrUnsupportedPlatform is matched by every UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

var supported = []Key{LinuxX64, LinuxArm64, DarwinX64, DarwinArm64}

var archNames = map[string]string{
	"amd64": "x64",
	"arm64": "arm64",
}

// UnsupportedPlatformError reports an OS/arch pair outside the allow-list.
type UnsupportedPlatformError struct {
	OS   string
	Arch string
}

func (e *UnsupportedPlatformError) Error() string {
	names := make([]string, len(supported))
	for i, k := range supported {
		names[i] = string(k)
	}
	return fmt.Sprintf("unsupported platform: %s-%s. Supported: %s", e.OS, e.Arch, strings.Join(names, ", "))
}

func (e *UnsupportedPlatformError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}

// Supported returns the allow-list in its canonical order.
func Supported() []Key {
	out := make([]Key, len(supported))
	copy(out, supported)
	return out
}

// Resolve maps a Go OS/arch pair to its platform key.
func Resolve(goos, goarch string) (Key, error) {
	arch, ok := archNames[goarch]
	if !ok {
		return "", &UnsupportedPlatformError{OS: goos, Arch: goarch}
	}
	key := Key(goos + "-" + arch)
	for _, k := range supported {
		if k == key {
			return k, nil
		}
	}
	return "", &UnsupportedPlatformError{OS: goos, Arch: goarch}
}

// Current resolves the key for the running process.
func Current() (Key, error) {
	return Resolve(runtime.GOOS, runtime.GOARCH)
}

// IsSupported reports whether the running platform is in the allow-list.
func IsSupported() bool {
	_, err := Current()
	return err == nil
}

// Valid reports whether k is one of the supported keys.
func (k Key) Valid() bool {
	for _, s := range supported {
		if s == k {
			return true
		}
	}
	return false
}

func (k Key) String() string {
	return string(k)
}
