package launcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts require a unix shell")
	}
	path := filepath.Join(t.TempDir(), "child")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSpawnAndWait(t *testing.T) {
	var stdout bytes.Buffer
	executor := NewExecutor(strings.NewReader(""), &stdout, &stdout)

	path := writeScript(t, `echo "child says: $1"`)
	code, err := executor.SpawnAndWait(context.Background(), path, []string{"hello"}, os.Environ())
	if err != nil {
		t.Fatalf("SpawnAndWait() error = %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "child says: hello") {
		t.Errorf("child output not forwarded: %q", stdout.String())
	}
}

func TestSpawnAndWait_NonZeroExitIsNotAnError(t *testing.T) {
	executor := NewExecutor(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	path := writeScript(t, "exit 7")
	code, err := executor.SpawnAndWait(context.Background(), path, nil, os.Environ())
	if err != nil {
		t.Fatalf("a non-zero child exit is a result, not an error: %v", err)
	}
	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
}

func TestSpawnAndWait_SignalTerminatedChild(t *testing.T) {
	executor := NewExecutor(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	path := writeScript(t, "kill -TERM $$")
	code, err := executor.SpawnAndWait(context.Background(), path, nil, os.Environ())
	if err != nil {
		t.Fatalf("a signal-terminated child is a result, not an error: %v", err)
	}
	// The status must stay a valid exit code for os.Exit.
	if code != 1 {
		t.Errorf("exit code = %d, want 1 for a signal-terminated child", code)
	}
}

func TestSpawnAndWait_MissingBinary(t *testing.T) {
	executor := NewExecutor(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	code, err := executor.SpawnAndWait(context.Background(),
		filepath.Join(t.TempDir(), "does-not-exist"), nil, os.Environ())
	if err == nil {
		t.Fatal("expected spawn failure")
	}
	if code != -1 {
		t.Errorf("exit code = %d, want -1 for spawn failures", code)
	}
}

func TestSpawnAndWait_EnvironmentPassedThrough(t *testing.T) {
	var stdout bytes.Buffer
	executor := NewExecutor(strings.NewReader(""), &stdout, &stdout)

	path := writeScript(t, `echo "key=$GEMINI_API_KEY"`)
	env := append(os.Environ(), "GEMINI_API_KEY=AIzaChildKey")
	if _, err := executor.SpawnAndWait(context.Background(), path, nil, env); err != nil {
		t.Fatalf("SpawnAndWait() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "key=AIzaChildKey") {
		t.Errorf("credential not inherited by child: %q", stdout.String())
	}
}
