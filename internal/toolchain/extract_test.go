package toolchain

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// archiveEntry describes one file placed in a generated test archive.
type archiveEntry struct {
	name    string
	content string
	mode    int64
	dir     bool
}

// buildTarGz writes a tar.gz archive with the given entries and returns
// its bytes.
func buildTarGz(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		if e.dir {
			if err := tw.WriteHeader(&tar.Header{
				Name:     e.name,
				Typeflag: tar.TypeDir,
				Mode:     0755,
			}); err != nil {
				t.Fatalf("write dir header: %v", err)
			}
			continue
		}

		mode := e.mode
		if mode == 0 {
			mode = 0644
		}
		if err := tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Typeflag: tar.TypeReg,
			Mode:     mode,
			Size:     int64(len(e.content)),
		}); err != nil {
			t.Fatalf("write header for %s: %v", e.name, err)
		}
		if _, err := tw.Write([]byte(e.content)); err != nil {
			t.Fatalf("write content for %s: %v", e.name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	return buf.Bytes()
}

func writeTarGz(t *testing.T, dir, name string, entries []archiveEntry) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buildTarGz(t, entries), 0644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func TestExtractTool(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := writeTarGz(t, tmpDir, "packtool.tar.gz", []archiveEntry{
		{name: "packtool-2.3.1/", dir: true},
		{name: "packtool-2.3.1/README.md", content: "docs"},
		{name: "packtool-2.3.1/bin/packtool", content: "#!/bin/sh\necho packtool\n", mode: 0755},
	})

	destPath := filepath.Join(tmpDir, "bin", "packtool")
	if err := NewExtractor().ExtractTool(archivePath, destPath, "packtool"); err != nil {
		t.Fatalf("ExtractTool() error = %v", err)
	}

	content, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("read extracted tool: %v", err)
	}
	if string(content) != "#!/bin/sh\necho packtool\n" {
		t.Errorf("unexpected tool content: %q", string(content))
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(destPath)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode()&0111 == 0 {
			t.Error("extracted tool is not executable")
		}
	}
}

func TestExtractTool_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := writeTarGz(t, tmpDir, "packtool.tar.gz", []archiveEntry{
		{name: "README.md", content: "docs"},
	})

	err := NewExtractor().ExtractTool(archivePath, filepath.Join(tmpDir, "out"), "packtool")
	if err == nil {
		t.Error("expected error for missing tool")
	}
}

func TestExtractTool_NotAnArchive(t *testing.T) {
	tmpDir := t.TempDir()
	bogus := filepath.Join(tmpDir, "bogus.tar.gz")
	if err := os.WriteFile(bogus, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}

	err := NewExtractor().ExtractTool(bogus, filepath.Join(tmpDir, "out"), "packtool")
	if err == nil {
		t.Error("expected error for invalid archive")
	}
}

func TestExtractAll(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := writeTarGz(t, tmpDir, "pkgs.tar.gz", []archiveEntry{
		{name: "pipedream_gui/", dir: true},
		{name: "pipedream_gui/gui-main", content: "entry"},
		{name: "pipedream_gui/assets/logo.svg", content: "<svg/>"},
	})

	destDir := filepath.Join(tmpDir, "pkgs")
	if err := NewExtractor().ExtractAll(archivePath, destDir); err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}

	for path, want := range map[string]string{
		"pipedream_gui/gui-main":        "entry",
		"pipedream_gui/assets/logo.svg": "<svg/>",
	} {
		content, err := os.ReadFile(filepath.Join(destDir, path))
		if err != nil {
			t.Errorf("read %s: %v", path, err)
			continue
		}
		if string(content) != want {
			t.Errorf("%s content = %q, want %q", path, string(content), want)
		}
	}
}

func TestExtractAll_RejectsPathTraversal(t *testing.T) {
	tmpDir := t.TempDir()
	archivePath := writeTarGz(t, tmpDir, "evil.tar.gz", []archiveEntry{
		{name: "../evil.txt", content: "escape attempt"},
	})

	destDir := filepath.Join(tmpDir, "pkgs")
	if err := NewExtractor().ExtractAll(archivePath, destDir); err == nil {
		t.Fatal("expected path traversal error")
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "evil.txt")); !os.IsNotExist(err) {
		t.Error("traversal file should not have been written")
	}
}

func TestSetExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("bin"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := SetExecutable(path); err != nil {
		t.Fatalf("SetExecutable() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}
