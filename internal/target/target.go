// Package target enumerates the operating systems the build pipeline
// can produce distributables for and resolves requested target sets.
package target

import (
	"errors"
	"fmt"

	"github.com/stardock/stardock/internal/platform"
)

// ErrUnknownTarget is returned when a requested target token is not one
// of the enumerated platforms (or "all").
var ErrUnknownTarget = errors.New("unknown build target")

// ArchiveKind describes the platform-native distributable shape the
// finisher produces for a target.
type ArchiveKind string

const (
	ArchiveDiskImage ArchiveKind = "dmg"    // macOS disk image
	ArchiveTarGz     ArchiveKind = "tar.gz" // compressed archive of the raw binary
	ArchiveNone      ArchiveKind = "none"   // raw suffixed executable
)

// Target describes one build target. Immutable once selected for a
// build run.
type Target struct {
	ID          string // "macos", "linux", "windows"
	GOOS        string // host OS string that can natively build this target
	BinaryExt   string // executable suffix ("" or ".exe")
	ArchiveKind ArchiveKind
}

var (
	MacOS   = Target{ID: "macos", GOOS: "darwin", BinaryExt: "", ArchiveKind: ArchiveDiskImage}
	Linux   = Target{ID: "linux", GOOS: "linux", BinaryExt: "", ArchiveKind: ArchiveTarGz}
	Windows = Target{ID: "windows", GOOS: "windows", BinaryExt: ".exe", ArchiveKind: ArchiveNone}
)

// All is the full target set in its fixed resolution order. "all"
// always expands to exactly this sequence so output ordering is
// deterministic across runs and hosts.
var All = []Target{MacOS, Linux, Windows}

// FromID returns the target with the given identifier.
func FromID(id string) (Target, error) {
	for _, t := range All {
		if t.ID == id {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("%w: %q (expected macos, linux, windows, or all)", ErrUnknownTarget, id)
}

// FromHost returns the target matching the detected host platform. This
// is the default when no target is requested on the command line.
func FromHost(host *platform.Info) (Target, error) {
	for _, t := range All {
		if t.GOOS == host.OS {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("%w: host platform %q has no native build target", ErrUnknownTarget, host.OS)
}

// Resolve expands the requested target tokens into an ordered target
// sequence. "all" expands to the full enumerated set in fixed order.
// Duplicate requests are collapsed, preserving first occurrence.
func Resolve(tokens []string) ([]Target, error) {
	var out []Target
	seen := make(map[string]bool)

	add := func(t Target) {
		if !seen[t.ID] {
			seen[t.ID] = true
			out = append(out, t)
		}
	}

	for _, tok := range tokens {
		if tok == "all" {
			for _, t := range All {
				add(t)
			}
			continue
		}
		t, err := FromID(tok)
		if err != nil {
			return nil, err
		}
		add(t)
	}

	return out, nil
}

// CanBuild reports whether the detected host can natively build the
// target. A mismatched known host skips the target with a warning
// rather than failing the run; an unknown host is permissive and
// attempts every target anyway, to avoid false negatives on uncommon
// platform strings.
func CanBuild(t Target, host *platform.Info) bool {
	if !host.IsKnown() {
		return true
	}
	return t.GOOS == host.OS
}
