package compose

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

// ErrCompose wraps failures producing the unified artifact.
var ErrCompose = errors.New("bundle composition failed")

// DescriptorFileName is the generated build descriptor inside the
// build directory.
const DescriptorFileName = "stardock.bundle.yaml"

// Composer produces the unified launcher executable from the two
// packaged application artifacts.
type Composer struct {
	tool           string // path to the packaging tool binary
	buildDir       string
	distDir        string
	launcherSource string // launcher program entry point
	product        buildcfg.Product
}

// NewComposer creates a composer. launcherSource is the launcher
// program the descriptor declares as the single entry point.
func NewComposer(toolPath, buildDir, distDir, launcherSource string, product buildcfg.Product) *Composer {
	return &Composer{
		tool:           toolPath,
		buildDir:       buildDir,
		distDir:        distDir,
		launcherSource: launcherSource,
		product:        product,
	}
}

// Compose writes the build descriptor and invokes the packaging tool to
// produce the unified artifact. apps maps logical resource names to
// packaged artifact paths; ordering follows the configured app list.
func (c *Composer) Compose(ctx context.Context, apps []Resource, tgt target.Target) (string, error) {
	if len(apps) != 2 {
		return "", fmt.Errorf("%w: expected two packaged applications, got %d", ErrCompose, len(apps))
	}

	descriptor := Descriptor{
		Name:         c.product.Name,
		Version:      c.product.Version,
		Entrypoint:   c.launcherSource,
		BinarySuffix: tgt.BinaryExt,
		Console:      true, // the launcher's menu and credential prompt need a terminal
		Resources:    apps,
		Capabilities: LauncherCapabilities,
	}

	rendered, err := Render(descriptor)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompose, err)
	}

	descriptorPath := filepath.Join(c.buildDir, DescriptorFileName)
	if err := os.WriteFile(descriptorPath, rendered, 0644); err != nil {
		return "", fmt.Errorf("%w: write descriptor: %v", ErrCompose, err)
	}

	cmd := exec.CommandContext(ctx, c.tool, "compose", "--descriptor", descriptorPath, "--dist", c.distDir)
	cmd.Env = []string{
		"HOME=" + os.Getenv("HOME"),
		"PATH=" + os.Getenv("PATH"),
		"USER=" + os.Getenv("USER"),
		"LANG=" + os.Getenv("LANG"),
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrCompose, detail)
	}

	unified := filepath.Join(c.distDir, c.product.Name+tgt.BinaryExt)
	if _, err := os.Stat(unified); err != nil {
		return "", fmt.Errorf("%w: expected unified artifact %s", ErrCompose, unified)
	}

	return unified, nil
}
