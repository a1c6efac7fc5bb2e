package toolchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stardock/stardock/internal/buildcfg"
	"github.com/stardock/stardock/internal/packager"
	"github.com/stardock/stardock/internal/target"
)

// newToolServer serves generated tool archives, any extra pre-built
// archives keyed by basename, and a checksums file covering all of
// them, the way a real release bucket would.
func newToolServer(t *testing.T, tools map[string]string, extra map[string][]byte) *httptest.Server {
	t.Helper()

	archives := make(map[string][]byte, len(tools)+len(extra))
	checksums := ""
	for name, content := range tools {
		data := buildTarGz(t, []archiveEntry{
			{name: name + "/bin/" + name, content: content, mode: 0755},
		})
		basename := fmt.Sprintf("%s-1.0.0-linux-amd64.tar.gz", name)
		archives[basename] = data

		sum := sha256.Sum256(data)
		checksums += hex.EncodeToString(sum[:]) + "  " + basename + "\n"
	}
	for basename, data := range extra {
		archives[basename] = data
		sum := sha256.Sum256(data)
		checksums += hex.EncodeToString(sum[:]) + "  " + basename + "\n"
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := filepath.Base(r.URL.Path)
		if base == "checksums.txt" {
			w.Write([]byte(checksums))
			return
		}
		if data, ok := archives[base]; ok {
			w.Write(data)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func testToolchainConfig(serverURL string) buildcfg.Toolchain {
	return buildcfg.Toolchain{
		PackagerName:    "packtool",
		PackagerVersion: "1.0.0",
		PackagerURL:     serverURL + "/packtool-{version}-{os}-{arch}.tar.gz",
		ChecksumURL:     serverURL + "/checksums.txt",
		ImageToolName:   "create-dmg",
		ImageToolURL:    serverURL + "/create-dmg-{version}-{os}-{arch}.tar.gz",
	}
}

func TestProvision(t *testing.T) {
	server := newToolServer(t, map[string]string{
		"packtool":   "packager binary",
		"create-dmg": "image tool binary",
	}, nil)
	defer server.Close()

	tmpDir := t.TempDir()
	p := NewProvisioner(
		filepath.Join(tmpDir, "toolchain"),
		filepath.Join(tmpDir, "cache"),
		testToolchainConfig(server.URL),
		nil,
	)
	host := NewHostInfo("linux", "amd64")

	handle, err := p.Provision(context.Background(), target.Linux, host)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if handle.PackagerPath != filepath.Join(handle.BinDir, "packtool") {
		t.Errorf("PackagerPath = %q", handle.PackagerPath)
	}

	content, err := os.ReadFile(handle.PackagerPath)
	if err != nil {
		t.Fatalf("read installed packager: %v", err)
	}
	if string(content) != "packager binary" {
		t.Errorf("packager content = %q", string(content))
	}

	if _, err := os.Stat(handle.PkgDir); err != nil {
		t.Errorf("package dir missing: %v", err)
	}

	// Non-macOS targets never install the disk-image tool.
	if _, err := os.Stat(filepath.Join(handle.BinDir, "create-dmg")); !os.IsNotExist(err) {
		t.Errorf("create-dmg should not be installed for linux, stat err = %v", err)
	}
}

func TestProvision_MacOSInstallsImageTool(t *testing.T) {
	server := newToolServer(t, map[string]string{
		"packtool":   "packager binary",
		"create-dmg": "image tool binary",
	}, nil)
	defer server.Close()

	tmpDir := t.TempDir()
	p := NewProvisioner(
		filepath.Join(tmpDir, "toolchain"),
		filepath.Join(tmpDir, "cache"),
		testToolchainConfig(server.URL),
		nil,
	)

	handle, err := p.Provision(context.Background(), target.MacOS, NewHostInfo("linux", "amd64"))
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(handle.BinDir, "create-dmg"))
	if err != nil {
		t.Fatalf("read installed image tool: %v", err)
	}
	if string(content) != "image tool binary" {
		t.Errorf("image tool content = %q", string(content))
	}
}

func TestProvision_InstallsAppLibrary(t *testing.T) {
	lib := buildTarGz(t, []archiveEntry{
		{name: "pipedream_gui", dir: true},
		{name: "pipedream_gui/gui-main", content: "gui entry"},
		{name: "pipedream_gui/assets.dat", content: "assets"},
	})
	server := newToolServer(t, map[string]string{"packtool": "packager binary"}, map[string][]byte{
		"pipedream-gui-lib-linux-amd64.tar.gz": lib,
	})
	defer server.Close()

	cfg := testToolchainConfig(server.URL)
	cfg.ImageToolURL = ""
	apps := []buildcfg.App{
		{
			Name:       "pipedream-gui",
			Mode:       buildcfg.ModeWindowed,
			Pkg:        "pipedream_gui",
			Marker:     "gui-main",
			LibraryURL: server.URL + "/pipedream-gui-lib-{os}-{arch}.tar.gz",
		},
		{Name: "pytrek", Mode: buildcfg.ModeConsole, Entry: "apps/pytrek/main"},
	}

	tmpDir := t.TempDir()
	p := NewProvisioner(filepath.Join(tmpDir, "toolchain"), filepath.Join(tmpDir, "cache"), cfg, apps)

	handle, err := p.Provision(context.Background(), target.Linux, NewHostInfo("linux", "amd64"))
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	// The packaging step locates library-distributed entry points via
	// the marker file inside the freshly provisioned package tree.
	resolver := packager.NewEntryPointResolver(handle.PkgDir)
	entry, err := resolver.Resolve(apps[0])
	if err != nil {
		t.Fatalf("Resolve() after Provision() error = %v", err)
	}
	want := filepath.Join(handle.PkgDir, "pipedream_gui", "gui-main")
	if entry != want {
		t.Errorf("entry = %q, want %q", entry, want)
	}

	content, err := os.ReadFile(filepath.Join(handle.PkgDir, "pipedream_gui", "assets.dat"))
	if err != nil {
		t.Fatalf("read unpacked library file: %v", err)
	}
	if string(content) != "assets" {
		t.Errorf("library file content = %q", string(content))
	}
}

func TestProvision_LibraryChecksumMismatchFails(t *testing.T) {
	lib := buildTarGz(t, []archiveEntry{
		{name: "pipedream_gui/gui-main", content: "gui entry"},
	})
	server := newToolServer(t, map[string]string{"packtool": "packager binary"}, nil)
	defer server.Close()

	// Serve the library from a second bucket whose archive is not listed
	// in the checksums file.
	rogue := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(lib)
	}))
	defer rogue.Close()

	cfg := testToolchainConfig(server.URL)
	cfg.ImageToolURL = ""
	apps := []buildcfg.App{{
		Name:       "pipedream-gui",
		Mode:       buildcfg.ModeWindowed,
		Pkg:        "pipedream_gui",
		Marker:     "gui-main",
		LibraryURL: rogue.URL + "/pipedream-gui-lib-{os}-{arch}.tar.gz",
	}}

	tmpDir := t.TempDir()
	p := NewProvisioner(filepath.Join(tmpDir, "toolchain"), filepath.Join(tmpDir, "cache"), cfg, apps)

	_, err := p.Provision(context.Background(), target.Linux, NewHostInfo("linux", "amd64"))
	if err == nil {
		t.Fatal("expected unverifiable library archive to fail provisioning")
	}
	if !errors.Is(err, ErrProvision) {
		t.Errorf("error = %v, want ErrProvision", err)
	}
}

func TestProvision_RemovesStaleState(t *testing.T) {
	server := newToolServer(t, map[string]string{"packtool": "packager binary"}, nil)
	defer server.Close()

	tmpDir := t.TempDir()
	toolchainDir := filepath.Join(tmpDir, "toolchain")

	// Plant state from a previous run.
	stale := filepath.Join(toolchainDir, "bin", "leftover")
	if err := os.MkdirAll(filepath.Dir(stale), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := testToolchainConfig(server.URL)
	cfg.ImageToolURL = ""
	p := NewProvisioner(toolchainDir, filepath.Join(tmpDir, "cache"), cfg, nil)

	if _, err := p.Provision(context.Background(), target.Linux, NewHostInfo("linux", "amd64")); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale toolchain state should be removed, stat err = %v", err)
	}
}

func TestProvision_ChecksumMismatchFails(t *testing.T) {
	archive := buildTarGz(t, []archiveEntry{
		{name: "packtool/bin/packtool", content: "packager binary", mode: 0755},
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if filepath.Base(r.URL.Path) == "checksums.txt" {
			// Deliberately wrong digest.
			fmt.Fprintf(w, "%064d  packtool-1.0.0-linux-amd64.tar.gz\n", 0)
			return
		}
		w.Write(archive)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	cfg := testToolchainConfig(server.URL)
	cfg.ImageToolURL = ""
	p := NewProvisioner(filepath.Join(tmpDir, "toolchain"), filepath.Join(tmpDir, "cache"), cfg, nil)

	_, err := p.Provision(context.Background(), target.Linux, NewHostInfo("linux", "amd64"))
	if err == nil {
		t.Fatal("expected checksum mismatch to fail provisioning")
	}
	if !errors.Is(err, ErrProvision) {
		t.Errorf("error = %v, want ErrProvision", err)
	}
}
