// Command stardock builds the per-platform distributables: it packages
// the two embedded applications, composes them into one unified
// launcher executable, and wraps the result in each platform's native
// distributable shape.
//
// Usage:
//
//	stardock [--clean|-c] [--help|-h] [macos|linux|windows|all ...]
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/stardock/stardock/internal/buildcfg"
	"github.com/stardock/stardock/internal/platform"
	"github.com/stardock/stardock/internal/target"
	"github.com/stardock/stardock/internal/workspace"
)

// Version will be set at build time via -ldflags.
var Version = "v1.0.0"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("stardock", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	clean := fs.BoolP("clean", "c", false, "remove build, dist, and temp directories")
	help := fs.BoolP("help", "h", false, "show usage")
	version := fs.Bool("version", false, "show version information")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *help {
		printUsage(stdout)
		return 0
	}
	if *version {
		fmt.Fprintf(stdout, "Stardock %s\n", Version)
		return 0
	}

	ws, err := workspace.New(".")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *clean {
		if err := ws.Clean(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "Removed build, dist, and temp directories.")
		if fs.NArg() == 0 {
			return 0
		}
	}

	detector := platform.NewDetector()
	host, err := detector.Detect(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	targets, err := resolveRequested(fs.Args(), host)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		printUsage(stderr)
		return 2
	}

	parser := buildcfg.NewParser(detector)
	cfg, err := parser.Load(ctx, buildcfg.ConfigFileName)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	// Fresh multi-target runs start from a torn-down workspace so no
	// stale artifact leaks between platforms.
	if err := ws.Clean(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := ws.Create(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	p := &pipeline{cfg: cfg, ws: ws, host: host, stdout: stdout, stderr: stderr}

	failed := false
	for _, tgt := range targets {
		if !target.CanBuild(tgt, host) {
			fmt.Fprintf(stderr, "Warning: skipping %s: cannot build it on a %s host\n", tgt.ID, host.OS)
			continue
		}

		if err := p.buildTarget(ctx, tgt); err != nil {
			// Fatal for this target only; remaining targets still run.
			fmt.Fprintf(stderr, "Error: building %s: %v\n", tgt.ID, err)
			failed = true
			continue
		}
	}

	if failed {
		return 1
	}
	return 0
}

// resolveRequested expands the requested target tokens; with no tokens
// the detected host platform is the only target.
func resolveRequested(tokens []string, host *platform.Info) ([]target.Target, error) {
	if len(tokens) == 0 {
		t, err := target.FromHost(host)
		if err != nil {
			return nil, err
		}
		return []target.Target{t}, nil
	}
	return target.Resolve(tokens)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Stardock build pipeline")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  stardock [--clean|-c] [--help|-h] [macos|linux|windows|all ...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "With no target, builds for the detected host platform.")
	fmt.Fprintln(w, "With --clean and no target, removes the workspace and exits.")
}
