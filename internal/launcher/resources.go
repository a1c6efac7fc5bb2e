package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Stable logical names of the embedded applications.
const (
	ResourceVisualization = "pipedream-gui"
	ResourceGame          = "pytrek"
)

// ErrResourceNotFound is returned when an embedded application cannot
// be located. Fatal for the run: a missing resource is unrecoverable.
var ErrResourceNotFound = errors.New("embedded application not found")

// ResourceLocator finds embedded application binaries. Roots are
// searched in rank order: the toolchain-provided bundle path when
// running from the unified artifact, then the launcher executable's own
// directory (development runs). The ranked order is data so it is
// independently testable.
type ResourceLocator struct {
	Roots []string
}

// DefaultLocator builds the locator for this process. bundleDir comes
// from the packaging toolchain's runtime environment and may be empty.
func DefaultLocator(bundleDir string) *ResourceLocator {
	var roots []string
	if bundleDir != "" {
		roots = append(roots, bundleDir)
	}
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}
	return &ResourceLocator{Roots: roots}
}

// Locate returns the path of the named resource. On Windows the
// resource carries the platform's executable suffix.
func (r *ResourceLocator) Locate(name string) (string, error) {
	filename := name
	if runtime.GOOS == "windows" {
		filename += ".exe"
	}

	for _, root := range r.Roots {
		for _, rel := range []string{filepath.Join("apps", filename), filename} {
			path := filepath.Join(root, rel)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s (searched: %s)", ErrResourceNotFound, name, strings.Join(r.Roots, ", "))
}
