package packager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stardock/stardock/internal/buildcfg"
)

// Entry point resolution errors. The two cases are reported distinctly:
// a dependency that was never installed reads differently to a user
// than a dependency that is installed but ships no recognizable entry
// point.
var (
	ErrPackageNotInstalled = errors.New("dependency not installed")
	ErrEntryPointNotFound  = errors.New("entry point not found in installed package")
)

// EntryPointResolver locates the entry point of a library-distributed
// application by searching the toolchain's installed-package tree. The
// ranked search order is configuration data, not inline logic, so it is
// independently testable.
type EntryPointResolver struct {
	Roots []string // searched in order; first hit wins
}

// NewEntryPointResolver creates a resolver over the given ranked roots.
func NewEntryPointResolver(roots ...string) *EntryPointResolver {
	return &EntryPointResolver{Roots: roots}
}

// Resolve searches each root for the app's package directory and its
// marker file. The first root containing both wins.
func (r *EntryPointResolver) Resolve(app buildcfg.App) (string, error) {
	if app.Pkg == "" || app.Marker == "" {
		return "", fmt.Errorf("%w: app %s declares no package/marker to search for", ErrPackageNotInstalled, app.Name)
	}

	pkgSeen := false

	for _, root := range r.Roots {
		pkgDir := filepath.Join(root, app.Pkg)
		if info, err := os.Stat(pkgDir); err != nil || !info.IsDir() {
			continue
		}
		pkgSeen = true

		marker := filepath.Join(pkgDir, app.Marker)
		if info, err := os.Stat(marker); err == nil && info.Mode().IsRegular() {
			return marker, nil
		}
	}

	if !pkgSeen {
		return "", fmt.Errorf("%w: package %q for app %s not found (searched: %s)",
			ErrPackageNotInstalled, app.Pkg, app.Name, strings.Join(r.Roots, ", "))
	}

	return "", fmt.Errorf("%w: package %q is installed but contains no %q marker",
		ErrEntryPointNotFound, app.Pkg, app.Marker)
}
