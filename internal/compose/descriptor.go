// Package compose synthesizes the unified launcher artifact: it renders
// a build descriptor declaring the launcher entry point and both
// packaged applications as embedded data resources, then invokes the
// packaging tool a third time to produce one executable containing
// both.
package compose

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Resource declares one opaque embedded data resource, addressable by
// its stable logical name at runtime.
type Resource struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Descriptor is the build descriptor handed to the packaging tool. The
// windows target differs only in the binary suffix; everything else is
// identical across platforms, so the suffix is a parameter rather than
// a per-platform descriptor variant.
type Descriptor struct {
	Name         string     `yaml:"name"`
	Version      string     `yaml:"version"`
	Entrypoint   string     `yaml:"entrypoint"`
	BinarySuffix string     `yaml:"binary_suffix,omitempty"`
	Console      bool       `yaml:"console"`
	Resources    []Resource `yaml:"resources"`
	Capabilities []string   `yaml:"capabilities"`
}

// LauncherCapabilities are the runtime capabilities the unified
// launcher needs. The launcher itself is text-only: it requires child
// process control, temp-file creation, and path manipulation, but no
// windowing toolkit handle (the windowed app brings its own).
var LauncherCapabilities = []string{
	"process-spawn",
	"temp-files",
	"path-resolution",
	"console-io",
}

// Render serializes the descriptor. Pure: rendering touches no
// filesystem state, so descriptor generation is testable in isolation
// from the write step.
func Render(d Descriptor) ([]byte, error) {
	if d.Entrypoint == "" {
		return nil, fmt.Errorf("descriptor requires an entrypoint")
	}
	if len(d.Resources) == 0 {
		return nil, fmt.Errorf("descriptor requires at least one resource")
	}

	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor: %w", err)
	}
	return out, nil
}
