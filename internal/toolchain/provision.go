package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stardock/stardock/internal/buildcfg"
	"github.com/stardock/stardock/internal/target"
)

// Provisioner establishes an isolated, reproducible toolchain state
// before any packaging step runs. Any pre-existing toolchain state is
// removed and recreated from scratch before every build target, so no
// build artifacts leak between platforms.
type Provisioner struct {
	dir        string // toolchain root, recreated per target
	cfg        buildcfg.Toolchain
	apps       []buildcfg.App
	downloader *Downloader
	verifier   *Verifier
	extractor  *Extractor
}

// NewProvisioner creates a provisioner rooted at dir. Downloads are
// cached in cacheDir, which survives re-provisioning (the cache holds
// verified archives, not installed state). Apps that declare a library
// archive get their package tree installed alongside the tools.
func NewProvisioner(dir, cacheDir string, cfg buildcfg.Toolchain, apps []buildcfg.App) *Provisioner {
	return &Provisioner{
		dir:        dir,
		cfg:        cfg,
		apps:       apps,
		downloader: NewDownloader(cacheDir),
		verifier:   NewVerifier(cfg.KeyringPath),
		extractor:  NewExtractor(),
	}
}

// Provision tears down and recreates the toolchain directory, then
// installs the packaging tool, the library archives of any
// library-distributed apps, and, for the macOS target, the
// image-archiver auxiliary tool. The returned handle is valid until
// the next Provision or workspace clean.
func (p *Provisioner) Provision(ctx context.Context, tgt target.Target, host *HostInfo) (*Handle, error) {
	if err := os.RemoveAll(p.dir); err != nil {
		return nil, fmt.Errorf("%w: remove stale toolchain: %v", ErrProvision, err)
	}

	handle := &Handle{
		Dir:    p.dir,
		BinDir: filepath.Join(p.dir, "bin"),
		PkgDir: filepath.Join(p.dir, "pkgs"),
	}

	for _, dir := range []string{handle.BinDir, handle.PkgDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create toolchain dir: %v", ErrProvision, err)
		}
	}

	packagerPath, err := p.installTool(ctx, handle, packagerSpec(p.cfg, host))
	if err != nil {
		return nil, fmt.Errorf("%w: install %s: %v", ErrProvision, p.cfg.PackagerName, err)
	}
	handle.PackagerPath = packagerPath

	// Apps without an explicit entry point ship as installed package
	// trees; the packaging step resolves their entry through the marker
	// file inside the unpacked tree.
	for _, app := range p.apps {
		if app.Entry != "" || app.LibraryURL == "" {
			continue
		}
		if err := p.installLibrary(ctx, handle, librarySpec(app, p.cfg, host)); err != nil {
			return nil, fmt.Errorf("%w: install %s library: %v", ErrProvision, app.Name, err)
		}
	}

	// The disk-image tool is only needed when finishing the macOS
	// target, and only when configured; the finisher falls back to
	// hdiutil when it is absent.
	if tgt.ID == target.MacOS.ID && p.cfg.ImageToolURL != "" {
		if _, err := p.installTool(ctx, handle, imageToolSpec(p.cfg, host)); err != nil {
			return nil, fmt.Errorf("%w: install %s: %v", ErrProvision, p.cfg.ImageToolName, err)
		}
	}

	return handle, nil
}

// installTool downloads, verifies, and extracts one tool into the
// toolchain bin directory, returning the installed binary path.
func (p *Provisioner) installTool(ctx context.Context, handle *Handle, spec DownloadSpec) (string, error) {
	archivePath, err := p.fetchVerified(ctx, spec)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(handle.BinDir, spec.Name)
	if err := p.extractor.ExtractTool(archivePath, destPath, spec.Name); err != nil {
		return "", err
	}

	if err := SetExecutable(destPath); err != nil {
		return "", err
	}

	return destPath, nil
}

// installLibrary downloads, verifies, and unpacks an app's installed
// package tree into the toolchain package directory.
func (p *Provisioner) installLibrary(ctx context.Context, handle *Handle, spec DownloadSpec) error {
	archivePath, err := p.fetchVerified(ctx, spec)
	if err != nil {
		return err
	}
	return p.extractor.ExtractAll(archivePath, handle.PkgDir)
}

// fetchVerified downloads an archive plus its verification material and
// runs the verification ladder, returning the cached archive path.
func (p *Provisioner) fetchVerified(ctx context.Context, spec DownloadSpec) (string, error) {
	archivePath, err := p.downloader.Fetch(ctx, spec.Name, spec.Version, spec.URL)
	if err != nil {
		return "", err
	}

	var signaturePath, checksumPath string

	if spec.SignatureURL != "" {
		// Signature download failure falls back to SHA-256.
		signaturePath, _ = p.downloader.Fetch(ctx, spec.Name, spec.Version, spec.SignatureURL)
	}

	if spec.ChecksumURL != "" {
		checksumPath, err = p.downloader.Fetch(ctx, spec.Name, spec.Version, spec.ChecksumURL)
		if err != nil {
			return "", err
		}
	}

	if _, err := p.verifier.Verify(archivePath, signaturePath, checksumPath); err != nil {
		return "", err
	}

	return archivePath, nil
}

// HostInfo carries the fields needed to expand tool URLs.
type HostInfo struct {
	OS   string
	Arch string
}

// NewHostInfo builds the URL-expansion host description.
func NewHostInfo(goos, arch string) *HostInfo {
	return &HostInfo{OS: goos, Arch: arch}
}

func packagerSpec(cfg buildcfg.Toolchain, host *HostInfo) DownloadSpec {
	expand := func(url string) string {
		return ExpandURL(url, cfg.PackagerVersion, host.OS, host.Arch)
	}
	return DownloadSpec{
		Name:         cfg.PackagerName,
		Version:      cfg.PackagerVersion,
		URL:          expand(cfg.PackagerURL),
		ChecksumURL:  expand(cfg.ChecksumURL),
		SignatureURL: expand(cfg.SignatureURL),
	}
}

// imageToolSpec shares the packager's checksums file, which carries
// entries for the auxiliary tools alongside the packager itself.
func imageToolSpec(cfg buildcfg.Toolchain, host *HostInfo) DownloadSpec {
	expand := func(url string) string {
		return ExpandURL(url, cfg.PackagerVersion, host.OS, host.Arch)
	}
	return DownloadSpec{
		Name:        cfg.ImageToolName,
		Version:     cfg.PackagerVersion,
		URL:         expand(cfg.ImageToolURL),
		ChecksumURL: expand(cfg.ChecksumURL),
	}
}

// librarySpec describes an app's package-tree archive. Libraries are
// versioned with the toolchain snapshot and share its checksums file.
func librarySpec(app buildcfg.App, cfg buildcfg.Toolchain, host *HostInfo) DownloadSpec {
	expand := func(url string) string {
		return ExpandURL(url, cfg.PackagerVersion, host.OS, host.Arch)
	}
	return DownloadSpec{
		Name:        app.Pkg,
		Version:     cfg.PackagerVersion,
		URL:         expand(app.LibraryURL),
		ChecksumURL: expand(cfg.ChecksumURL),
	}
}
