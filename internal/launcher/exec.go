package launcher

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Executor spawns a child process and blocks until it exits. The exit
// code is reported separately from spawn failures: a non-zero child
// exit is not an error here, it is a result the launcher mirrors.
type Executor interface {
	SpawnAndWait(ctx context.Context, path string, args []string, env []string) (int, error)
}

// processExecutor runs real child processes with the launcher's
// terminal attached, so interactive prompts inside the apps work.
type processExecutor struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewExecutor creates the standard process executor wired to the given
// standard streams.
func NewExecutor(stdin io.Reader, stdout, stderr io.Writer) Executor {
	return &processExecutor{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (e *processExecutor) SpawnAndWait(ctx context.Context, path string, args []string, env []string) (int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	cmd.Env = env

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// A signal-terminated child carries no exit code. Report a
			// plain failure; a negative value would wrap around when
			// handed to os.Exit.
			return 1, nil
		}
		return code, nil
	}

	// Spawn failure: binary missing, not executable, or similar.
	return -1, err
}
