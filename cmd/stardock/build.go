package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/stardock/stardock/internal/buildcfg"
	"github.com/stardock/stardock/internal/compose"
	"github.com/stardock/stardock/internal/finisher"
	"github.com/stardock/stardock/internal/packager"
	"github.com/stardock/stardock/internal/platform"
	"github.com/stardock/stardock/internal/target"
	"github.com/stardock/stardock/internal/toolchain"
	"github.com/stardock/stardock/internal/workspace"
)

// launcherSource is the launcher program the bundle descriptor declares
// as the unified artifact's single entry point.
const launcherSource = "cmd/stardock-launcher"

// pipeline runs the sequential build steps for one target at a time.
// One target is fully provisioned, packaged, composed, and finished
// before the next begins; packaging invocations never share a work
// directory concurrently.
type pipeline struct {
	cfg    *buildcfg.Config
	ws     *workspace.Workspace
	host   *platform.Info
	stdout io.Writer
	stderr io.Writer
}

func (p *pipeline) buildTarget(ctx context.Context, tgt target.Target) error {
	fmt.Fprintf(p.stdout, "==> Building %s (%s %s)\n", tgt.ID, p.cfg.Product.Name, p.cfg.Product.Version)

	if err := p.ws.ResetBuild(); err != nil {
		return err
	}

	prov := toolchain.NewProvisioner(
		filepath.Join(p.ws.TempDir, "toolchain"),
		filepath.Join(p.ws.TempDir, "cache"),
		p.cfg.Toolchain,
		p.cfg.Apps,
	)
	handle, err := prov.Provision(ctx, tgt, toolchain.NewHostInfo(p.host.OS, p.host.Arch))
	if err != nil {
		return err
	}
	fmt.Fprintf(p.stdout, "    provisioned toolchain in %s\n", handle.Dir)

	resolver := packager.NewEntryPointResolver(handle.PkgDir, filepath.Join(handle.Dir, "lib"))
	client := packager.NewClient(handle.PackagerPath, p.ws.BuildDir, p.ws.BuildDir, resolver)

	resources := make([]compose.Resource, 0, len(p.cfg.Apps))
	for _, app := range p.cfg.Apps {
		artifact, err := client.Package(ctx, app, tgt)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.stdout, "    packaged %s\n", app.Name)
		resources = append(resources, compose.Resource{Name: app.Name, Path: artifact})
	}

	composer := compose.NewComposer(handle.PackagerPath, p.ws.BuildDir, p.ws.DistDir, launcherSource, p.cfg.Product)
	unified, err := composer.Compose(ctx, resources, tgt)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.stdout, "    composed unified launcher\n")

	fin := finisher.New(p.ws.DistDir, handle.BinDir, p.cfg.Product,
		p.cfg.Toolchain.ImageToolName, p.host.Arch, finisher.NewSystemRunner())
	dist, err := fin.Finish(ctx, unified, tgt)
	if err != nil {
		return err
	}

	fmt.Fprintf(p.stdout, "✓ %s: %s\n", tgt.ID, dist)
	return nil
}
