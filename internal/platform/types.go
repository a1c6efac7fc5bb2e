// Package platform provides host platform detection for the build
// pipeline and Lua configuration integration.
//
// It detects OS, architecture, and Linux distribution details, then
// injects this information as a read-only table into the build
// configuration's Lua state. The package uses gopsutil for Linux
// distribution detection and provides graceful fallback behavior when
// detection fails.
package platform

import "context"

// Info contains host platform detection information.
type Info struct {
	OS      string // "linux", "darwin", "windows"
	Arch    string // "amd64", "arm64" (normalized)
	ArchRaw string // original GOARCH (e.g., "x86_64", "aarch64")
	Distro  string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Version string // distro version (Linux only, e.g., "22.04")
}

// IsLinux returns true if the host is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the host is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the host is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsKnown returns true if the host OS is one of the platforms the
// pipeline can produce distributables for. An unknown host is treated
// permissively by the target resolver: every build target is attempted.
func (i *Info) IsKnown() bool {
	return i.IsLinux() || i.IsMacOS() || i.IsWindows()
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
