// Package packager invokes the provisioned packaging tool to turn each
// embedded application into a standalone executable, and locates the
// entry point of library-distributed applications inside the
// toolchain's installed-package tree.
package packager

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

// User-facing packaging errors.
var (
	ErrToolNotFound    = errors.New("packaging tool not found")
	ErrPackagingFailed = errors.New("packaging step failed")
	ErrNoArtifact      = errors.New("packaging produced no artifact")
)

// Client wraps the external packaging tool. One Client serves all
// packaging invocations for a single target; invocations never share a
// work directory concurrently (the pipeline is sequential).
type Client struct {
	tool     string // path to the packaging tool binary
	workDir  string // packaging scratch area
	distDir  string // artifact output directory
	resolver *EntryPointResolver
}

// NewClient creates a packaging client. resolver may be nil when every
// app carries an explicit entry point.
func NewClient(toolPath, workDir, distDir string, resolver *EntryPointResolver) *Client {
	return &Client{
		tool:     toolPath,
		workDir:  workDir,
		distDir:  distDir,
		resolver: resolver,
	}
}

// Package invokes the packaging tool once for the given application and
// returns the produced artifact path. Console-mode applications keep
// terminal attachment; windowed applications are packaged without a
// console window. For apps without an explicit entry point, the true
// entry point is first located in the installed-package tree.
func (c *Client) Package(ctx context.Context, app buildcfg.App, tgt target.Target) (string, error) {
	entry := app.Entry
	if entry == "" {
		if c.resolver == nil {
			return "", fmt.Errorf("%w: app %s has no entry point and no resolver is configured", ErrPackagingFailed, app.Name)
		}
		resolved, err := c.resolver.Resolve(app)
		if err != nil {
			return "", err
		}
		entry = resolved
	}

	args := buildArgs(app, tgt, entry, c.workDir, c.distDir)

	cmd := exec.CommandContext(ctx, c.tool, args...)

	// Scrub the environment: the packaging tool sees only what it
	// needs, never the caller's credential or tool-specific variables.
	cmd.Env = []string{
		"HOME=" + os.Getenv("HOME"),
		"PATH=" + os.Getenv("PATH"),
		"USER=" + os.Getenv("USER"),
		"LANG=" + os.Getenv("LANG"),
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", translateToolError(err, string(out), app.Name)
	}

	artifact := filepath.Join(c.distDir, app.Name+tgt.BinaryExt)
	if _, err := os.Stat(artifact); err != nil {
		return "", fmt.Errorf("%w: expected %s after packaging %s", ErrNoArtifact, artifact, app.Name)
	}

	return artifact, nil
}

// buildArgs constructs the packaging tool invocation. Pure so the
// argument vocabulary is testable without running anything.
func buildArgs(app buildcfg.App, tgt target.Target, entry, workDir, distDir string) []string {
	args := []string{
		"bundle",
		"--name", app.Name,
		"--work", workDir,
		"--dist", distDir,
		"--suffix", tgt.BinaryExt,
	}

	switch app.Mode {
	case buildcfg.ModeConsole:
		args = append(args, "--console")
	case buildcfg.ModeWindowed:
		args = append(args, "--windowed")
	}

	return append(args, entry)
}

// translateToolError maps packaging tool failures to user-friendly
// errors, distinguishing a missing tool from a failed invocation.
func translateToolError(err error, output, appName string) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrToolNotFound, err)
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("packaging cancelled: %w", context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("packaging timed out: %w", context.DeadlineExceeded)
	}

	detail := strings.TrimSpace(output)
	const maxLen = 400
	if len(detail) > maxLen {
		detail = detail[:maxLen] + "..."
	}
	if detail == "" {
		detail = err.Error()
	}

	return fmt.Errorf("%w for %s: %s", ErrPackagingFailed, appName, detail)
}
