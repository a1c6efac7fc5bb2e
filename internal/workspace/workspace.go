// Package workspace manages the build pipeline's filesystem state: the
// distribution output directory, the per-target build directory, and
// the temporary work directory.
//
// The workspace is process-wide, mutated only by the currently
// executing build step, and fully torn down before each fresh
// multi-target run so no stale artifact leaks between platforms.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace holds the build artifact directories under a project root.
type Workspace struct {
	Root     string
	DistDir  string // final distributables
	BuildDir string // packaging work area
	TempDir  string // toolchain and scratch state
}

// New creates a workspace rooted at the given project directory. No
// directories are created until Create is called.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	if err := validateRootForRemoval(abs); err != nil {
		return nil, err
	}
	return &Workspace{
		Root:     abs,
		DistDir:  filepath.Join(abs, "dist"),
		BuildDir: filepath.Join(abs, "build"),
		TempDir:  filepath.Join(abs, ".stardock-tmp"),
	}, nil
}

// Create makes all workspace directories.
func (w *Workspace) Create() error {
	for _, dir := range w.dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create workspace dir %s: %w", dir, err)
		}
	}
	return nil
}

// Clean removes all workspace directories. It is idempotent: cleaning
// an already-clean workspace succeeds.
func (w *Workspace) Clean() error {
	for _, dir := range w.dirs() {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove workspace dir %s: %w", dir, err)
		}
	}
	return nil
}

// ResetBuild removes and recreates the build and temp directories,
// leaving completed distributables in place. Used between targets in a
// multi-target run so no build state crosses platforms.
func (w *Workspace) ResetBuild() error {
	for _, dir := range []string{w.BuildDir, w.TempDir} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("reset workspace dir %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("recreate workspace dir %s: %w", dir, err)
		}
	}
	return nil
}

func (w *Workspace) dirs() []string {
	return []string{w.DistDir, w.BuildDir, w.TempDir}
}

// validateRootForRemoval checks that the root is safe to remove
// directories under (no path traversal, not a system directory).
func validateRootForRemoval(root string) error {
	cleaned := filepath.Clean(root)

	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("invalid workspace root: contains path traversal sequence")
	}

	systemDirs := []string{"/", "/usr", "/bin", "/sbin", "/etc", "/var", "/lib", "/boot"}
	for _, sysDir := range systemDirs {
		if cleaned == sysDir {
			return fmt.Errorf("invalid workspace root: cannot use system directory %s", cleaned)
		}
	}

	return nil
}
