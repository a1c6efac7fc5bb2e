// Package buildcfg provides Lua build-configuration parsing for the
// packaging pipeline.
//
// It uses gopher-lua for safe, sandboxed Lua execution with host
// platform detection injected, so a project's stardock.lua can vary
// toolchain URLs or app settings by platform. A missing config file is
// not an error: the built-in defaults describe the stock two-app game
// bundle.
package buildcfg

import "fmt"

// LaunchMode describes how a packaged application attaches to the user.
type LaunchMode string

const (
	ModeConsole  LaunchMode = "console"  // keeps a visible terminal
	ModeWindowed LaunchMode = "windowed" // GUI, no console window
)

// Config is the complete build configuration.
type Config struct {
	Product   Product
	Apps      []App
	Toolchain Toolchain
}

// Product contains metadata for the unified artifact and its
// platform-native wrappers.
type Product struct {
	Name       string // display name, also the unified executable name
	Version    string
	BundleID   string // macOS bundle identifier
	VolumeName string // disk image volume name
}

// App describes one embedded application to package.
type App struct {
	Name   string     // logical resource name, stable at runtime
	Mode   LaunchMode // console or windowed
	Entry  string     // entry point locator (empty for library-distributed apps)
	Pkg    string     // installed-package directory name (windowed apps)
	Marker string     // marker file that identifies the true entry point

	// LibraryURL is the tar.gz archive of the installed package tree
	// for library-distributed apps. The provisioner unpacks it into the
	// toolchain's package tree before packaging; the entry point is then
	// resolved via Pkg/Marker. Supports the same URL placeholders as the
	// toolchain URLs.
	LibraryURL string
}

// Toolchain describes where the packaging tool and the macOS
// image-archiver auxiliary tool come from. URLs support {version},
// {os}, and {arch} placeholders.
type Toolchain struct {
	PackagerName    string // tool binary name inside the archive
	PackagerVersion string
	PackagerURL     string
	ChecksumURL     string // SHA-256 checksums file
	SignatureURL    string // armored detached signature (optional)
	KeyringPath     string // armored public keyring enabling signature checks
	ImageToolName   string // macOS disk-image tool (e.g. create-dmg)
	ImageToolURL    string
}

// Default returns the built-in configuration for the stock bundle:
// the windowed visualization front-end and the console game.
func Default() *Config {
	return &Config{
		Product: Product{
			Name:       "Stardock",
			Version:    "1.0.0",
			BundleID:   "com.stardock.launcher",
			VolumeName: "Stardock",
		},
		Apps: []App{
			{
				Name:       "pipedream-gui",
				Mode:       ModeWindowed,
				Pkg:        "pipedream_gui",
				Marker:     "gui-main",
				LibraryURL: "https://releases.packtool.dev/apps/pipedream-gui-lib-{os}-{arch}.tar.gz",
			},
			{
				Name:  "pytrek",
				Mode:  ModeConsole,
				Entry: "apps/pytrek/main",
			},
		},
		Toolchain: Toolchain{
			PackagerName:    "packtool",
			PackagerVersion: "2.3.1",
			PackagerURL:     "https://releases.packtool.dev/v{version}/packtool-{version}-{os}-{arch}.tar.gz",
			ChecksumURL:     "https://releases.packtool.dev/v{version}/checksums.txt",
			ImageToolName:   "create-dmg",
			ImageToolURL:    "https://releases.packtool.dev/aux/create-dmg-{os}-{arch}.tar.gz",
		},
	}
}

// Validate checks structural invariants the pipeline depends on.
func (c *Config) Validate() error {
	if c.Product.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if len(c.Apps) != 2 {
		return fmt.Errorf("exactly two apps are required, got %d", len(c.Apps))
	}
	for _, app := range c.Apps {
		if app.Name == "" {
			return fmt.Errorf("app name is required")
		}
		switch app.Mode {
		case ModeConsole:
			if app.Entry == "" {
				return fmt.Errorf("app %s: console apps require an entry point", app.Name)
			}
		case ModeWindowed:
			if app.Entry == "" {
				if app.Pkg == "" || app.Marker == "" {
					return fmt.Errorf("app %s: windowed apps require an entry point or a package/marker pair", app.Name)
				}
				if app.LibraryURL == "" {
					return fmt.Errorf("app %s: library-distributed apps require a library archive URL", app.Name)
				}
			}
		default:
			return fmt.Errorf("app %s: invalid mode %q (expected console or windowed)", app.Name, app.Mode)
		}
	}
	if c.Toolchain.PackagerName == "" || c.Toolchain.PackagerURL == "" {
		return fmt.Errorf("toolchain packager name and URL are required")
	}
	return nil
}
