// Package finisher wraps the unified executable into the
// platform-native distributable shape: a disk image on macOS, a raw
// binary plus a versioned compressed archive on Linux, and the suffixed
// executable itself on Windows.
package finisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/stardock/stardock/internal/buildcfg"
	"github.com/stardock/stardock/internal/target"
)

// ErrFinish wraps failures producing the final distributable.
var ErrFinish = errors.New("finishing step failed")

// CommandRunner abstracts the external archiver tools so the fallback
// order is testable without a macOS host.
type CommandRunner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

// systemRunner is the real CommandRunner.
type systemRunner struct{}

// NewSystemRunner returns a CommandRunner backed by the host system.
func NewSystemRunner() CommandRunner {
	return &systemRunner{}
}

func (s *systemRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (s *systemRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%s: %s", name, detail)
	}
	return nil
}

// Finisher produces the final per-platform distributable.
type Finisher struct {
	distDir    string
	toolBinDir string // provisioned toolchain bin dir, searched before PATH
	product    buildcfg.Product
	imageTool  string // preferred disk-image tool (e.g. create-dmg)
	runner     CommandRunner
	hostArch   string
}

// New creates a finisher writing distributables into distDir.
func New(distDir, toolBinDir string, product buildcfg.Product, imageTool, hostArch string, runner CommandRunner) *Finisher {
	return &Finisher{
		distDir:    distDir,
		toolBinDir: toolBinDir,
		product:    product,
		imageTool:  imageTool,
		runner:     runner,
		hostArch:   hostArch,
	}
}

// Finish wraps the unified executable for the target platform and
// returns the distributable path.
func (f *Finisher) Finish(ctx context.Context, unified string, tgt target.Target) (string, error) {
	switch tgt.ArchiveKind {
	case target.ArchiveDiskImage:
		return f.finishMacOS(ctx, unified)
	case target.ArchiveTarGz:
		return f.finishLinux(unified)
	case target.ArchiveNone:
		return f.finishWindows(unified, tgt)
	default:
		return "", fmt.Errorf("%w: unknown archive kind %q", ErrFinish, tgt.ArchiveKind)
	}
}

// finishMacOS constructs a minimal application bundle around the
// unified executable and wraps it in a disk image. The preferred
// disk-image tool is attempted first; its failure is not fatal because
// the OS-native utility produces an equivalent image with the same
// volume name.
func (f *Finisher) finishMacOS(ctx context.Context, unified string) (string, error) {
	appDir := filepath.Join(f.distDir, f.product.Name+".app")
	macOSDir := filepath.Join(appDir, "Contents", "MacOS")
	resourcesDir := filepath.Join(appDir, "Contents", "Resources")

	for _, dir := range []string{macOSDir, resourcesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("%w: create bundle dir: %v", ErrFinish, err)
		}
	}

	manifest, err := RenderInfoPlist(BundleMeta{
		Name:       f.product.Name,
		Executable: f.product.Name,
		BundleID:   f.product.BundleID,
		Version:    f.product.Version,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFinish, err)
	}
	plistPath := filepath.Join(appDir, "Contents", "Info.plist")
	if err := os.WriteFile(plistPath, []byte(manifest), 0644); err != nil {
		return "", fmt.Errorf("%w: write bundle manifest: %v", ErrFinish, err)
	}

	if err := os.Rename(unified, filepath.Join(macOSDir, f.product.Name)); err != nil {
		return "", fmt.Errorf("%w: move unified executable into bundle: %v", ErrFinish, err)
	}

	dmgPath := filepath.Join(f.distDir, f.archiveBaseName()+".dmg")

	if tool, ok := f.findImageTool(); ok {
		err := f.runner.Run(ctx, tool, "--volname", f.product.VolumeName, dmgPath, appDir)
		if err == nil {
			return dmgPath, nil
		}
		// Preferred tool failed; fall through to the native utility.
	}

	err = f.runner.Run(ctx, "hdiutil", "create",
		"-volname", f.product.VolumeName,
		"-srcfolder", appDir,
		"-ov", "-format", "UDZO",
		dmgPath)
	if err != nil {
		return "", fmt.Errorf("%w: create disk image: %v", ErrFinish, err)
	}

	return dmgPath, nil
}

// finishLinux leaves the raw binary in place and adds a versioned
// compressed archive next to it.
func (f *Finisher) finishLinux(unified string) (string, error) {
	archivePath := filepath.Join(f.distDir,
		fmt.Sprintf("%s-linux-%s.tar.gz", f.archiveBaseName(), f.hostArch))

	if err := WriteTarGz(archivePath, unified); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFinish, err)
	}
	return archivePath, nil
}

// finishWindows verifies the suffixed executable; no further wrapping.
func (f *Finisher) finishWindows(unified string, tgt target.Target) (string, error) {
	if !strings.HasSuffix(unified, tgt.BinaryExt) {
		return "", fmt.Errorf("%w: expected %s suffix on %s", ErrFinish, tgt.BinaryExt, unified)
	}
	if _, err := os.Stat(unified); err != nil {
		return "", fmt.Errorf("%w: missing unified executable %s", ErrFinish, unified)
	}
	return unified, nil
}

// findImageTool locates the preferred disk-image tool, trying the
// provisioned toolchain first, then the system PATH.
func (f *Finisher) findImageTool() (string, bool) {
	if f.imageTool == "" {
		return "", false
	}

	provisioned := filepath.Join(f.toolBinDir, f.imageTool)
	if info, err := os.Stat(provisioned); err == nil && info.Mode().IsRegular() {
		return provisioned, true
	}

	if path, err := f.runner.LookPath(f.imageTool); err == nil {
		return path, true
	}
	return "", false
}

func (f *Finisher) archiveBaseName() string {
	return fmt.Sprintf("%s-%s", strings.ToLower(f.product.Name), f.product.Version)
}
