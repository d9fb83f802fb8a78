package platform

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestResolveSupported(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         Key
	}{
		{"linux", "amd64", LinuxX64},
		{"linux", "arm64", LinuxArm64},
		{"darwin", "amd64", DarwinX64},
		{"darwin", "arm64", DarwinArm64},
	}

	for _, tt := range tests {
		got, err := Resolve(tt.goos, tt.goarch)
		if err != nil {
			t.Fatalf("Resolve(%s, %s) error: %v", tt.goos, tt.goarch, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%s, %s) = %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
		if !got.Valid() {
			t.Errorf("key %q should be valid", got)
		}
	}
}

func TestResolveUnsupported(t *testing.T) {
	tests := []struct {
		goos, goarch string
	}{
		{"windows", "amd64"},
		{"linux", "386"},
		{"linux", "riscv64"},
		{"freebsd", "arm64"},
		{"darwin", "ppc64"},
	}

	for _, tt := range tests {
		_, err := Resolve(tt.goos, tt.goarch)
		if err == nil {
			t.Fatalf("Resolve(%s, %s) expected error", tt.goos, tt.goarch)
		}
		if !errors.Is(err, ErrUnsupportedPlatform) {
			t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
		}
		var upe *UnsupportedPlatformError
		if !errors.As(err, &upe) {
			t.Fatalf("expected *UnsupportedPlatformError, got %T", err)
		}
		if upe.OS != tt.goos || upe.Arch != tt.goarch {
			t.Errorf("error carries %s-%s, want %s-%s", upe.OS, upe.Arch, tt.goos, tt.goarch)
		}
		msg := err.Error()
		for _, k := range Supported() {
			if !strings.Contains(msg, string(k)) {
				t.Errorf("error %q does not list %s", msg, k)
			}
		}
	}
}

func TestSupportedReturnsCopy(t *testing.T) {
	keys := Supported()
	keys[0] = "bogus"
	if Supported()[0] != LinuxX64 {
		t.Fatal("Supported() exposed its backing array")
	}
}

func TestCurrentMatchesResolve(t *testing.T) {
	want, wantErr := Resolve(runtime.GOOS, runtime.GOARCH)
	got, err := Current()
	if (err == nil) != (wantErr == nil) {
		t.Fatalf("Current() err = %v, Resolve err = %v", err, wantErr)
	}
	if got != want {
		t.Errorf("Current() = %q, want %q", got, want)
	}
	if IsSupported() != (err == nil) {
		t.Error("IsSupported disagrees with Current")
	}
}

func TestDescribeFillsRuntime(t *testing.T) {
	info, err := Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe error: %v", err)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("got %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
	if info.Key == "" && info.KeyError == "" {
		t.Error("expected either a key or a key error")
	}
}
