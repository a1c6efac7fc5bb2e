package buildcfg

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/stardock/stardock/internal/platform"
)

// ConfigFileName is the optional per-project build configuration file.
const ConfigFileName = "stardock.lua"

// Parser is a Lua build-config parser with platform detection.
type Parser struct {
	detector platform.Detector
	logger   Logger
}

// NewParser creates a new config parser with the given platform
// detector. A nil detector skips platform table injection (tests).
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: defaultLogger()}
}

// SetLogger replaces the parser's logger.
func (p *Parser) SetLogger(logger Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// ParseError represents a config parsing error with a friendly message.
type ParseError struct {
	Message string // user-friendly message
	Detail  string // technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// Load reads the build configuration from path. A missing file returns
// the built-in defaults; a present but malformed file is an error.
func (p *Parser) Load(ctx context.Context, path string) (*Config, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Debug("no build config found, using defaults", "path", path)
			return Default(), nil
		}
		return nil, fmt.Errorf("read build config: %w", err)
	}

	cfg, err := p.ParseString(ctx, string(code))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseString parses a Lua config from a string. Useful for testing and
// in-memory config generation. Fields absent from the Lua table keep
// their default values.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// extractConfig extracts the config from a Lua state. It expects a
// global "stardock" table and overlays it onto the defaults.
func extractConfig(L *lua.LState) (*Config, error) {
	root := L.GetGlobal("stardock")
	if root.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'stardock' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	cfg := Default()
	table := root.(*lua.LTable)

	if v := table.RawGetString("product"); v.Type() == lua.LTTable {
		extractProduct(v.(*lua.LTable), &cfg.Product)
	}

	if v := table.RawGetString("apps"); v.Type() == lua.LTTable {
		apps, err := extractApps(v.(*lua.LTable))
		if err != nil {
			return nil, err
		}
		cfg.Apps = apps
	}

	if v := table.RawGetString("toolchain"); v.Type() == lua.LTTable {
		extractToolchain(v.(*lua.LTable), &cfg.Toolchain)
	}

	return cfg, nil
}

func extractProduct(t *lua.LTable, product *Product) {
	setString(t, "name", &product.Name)
	setString(t, "version", &product.Version)
	setString(t, "bundle_id", &product.BundleID)
	setString(t, "volume", &product.VolumeName)
}

func extractApps(t *lua.LTable) ([]App, error) {
	var apps []App
	var parseErr error

	t.ForEach(func(_, v lua.LValue) {
		if parseErr != nil {
			return
		}
		appTable, ok := v.(*lua.LTable)
		if !ok {
			parseErr = &ParseError{
				Message: "invalid apps entry",
				Detail:  fmt.Sprintf("expected table, got %s", v.Type()),
			}
			return
		}

		var app App
		setString(appTable, "name", &app.Name)
		setString(appTable, "entry", &app.Entry)
		setString(appTable, "package", &app.Pkg)
		setString(appTable, "marker", &app.Marker)
		setString(appTable, "library_url", &app.LibraryURL)

		var mode string
		setString(appTable, "mode", &mode)
		app.Mode = LaunchMode(mode)

		apps = append(apps, app)
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return apps, nil
}

func extractToolchain(t *lua.LTable, tc *Toolchain) {
	setString(t, "packager", &tc.PackagerName)
	setString(t, "version", &tc.PackagerVersion)
	setString(t, "packager_url", &tc.PackagerURL)
	setString(t, "checksum_url", &tc.ChecksumURL)
	setString(t, "signature_url", &tc.SignatureURL)
	setString(t, "keyring", &tc.KeyringPath)
	setString(t, "image_tool", &tc.ImageToolName)
	setString(t, "image_tool_url", &tc.ImageToolURL)
}

// setString assigns a string field from the table if present.
func setString(t *lua.LTable, key string, dst *string) {
	if v := t.RawGetString(key); v.Type() == lua.LTString {
		*dst = string(v.(lua.LString))
	}
}
