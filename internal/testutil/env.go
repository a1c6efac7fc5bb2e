// Package testutil provides utilities for testing Stardock in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates isolated test directories for each test. This
// ensures tests never interfere with:
// - The user's real build workspace
// - A real launcher credential in the environment
// - Any packaging toolchain installed on the machine
//
// The cleanup is handled by t.TempDir(), so callers don't need to
// clean up manually.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("STARDOCK_BUNDLE_DIR", "")
	t.Setenv("STARDOCK_ART_STYLE", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TMPDIR", filepath.Join(tmpDir, "tmp"))

	dirs := []string{
		filepath.Join(tmpDir, "tmp"),
		filepath.Join(tmpDir, "work"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}
