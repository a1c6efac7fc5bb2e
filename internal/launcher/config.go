// Package launcher implements the unified runtime launcher: it resolves
// the credential, presents the game-mode menu, extracts the chosen
// embedded application to a private temporary location, executes it,
// and propagates its exit status.
package launcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// CredentialVar is the environment variable holding the API key both
// embedded applications need for their network-dependent features.
const CredentialVar = "GEMINI_API_KEY"

// credentialPrefix is the required prefix of a well-formed key.
const credentialPrefix = "AIza"

// ErrCredentialInvalid is returned for keys failing the prefix rule.
// Recoverable: the launcher re-prompts without limit.
var ErrCredentialInvalid = errors.New("invalid API key format")

// Config holds the launcher's environment-sourced configuration. The
// credential is the only mutable piece of state; it is written back to
// the process environment exactly once, after validation, so the child
// process inherits it.
type Config struct {
	// APIKey is the credential; empty means prompt interactively.
	APIKey string `env:"GEMINI_API_KEY"`

	// BundleDir is the toolchain-provided runtime bundle path exposing
	// the embedded resources when running from the unified artifact.
	BundleDir string `env:"STARDOCK_BUNDLE_DIR"`

	// ArtStyle is passed to the visualization app ahead of its input.
	ArtStyle string `env:"STARDOCK_ART_STYLE" envDefault:"StarTrek sci-fi game, orange monochrome"`
}

// ParseConfig parses the launcher configuration from the given
// environment variables.
func ParseConfig(environ []string) (*Config, error) {
	var cfg Config

	err := env.ParseWithOptions(&cfg, env.Options{
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return nil, fmt.Errorf("parse launcher config: %w", err)
	}

	return &cfg, nil
}

// ValidateKey applies the required-prefix rule to a candidate key.
func ValidateKey(key string) error {
	if key == "" || !strings.HasPrefix(key, credentialPrefix) {
		return fmt.Errorf("%w: API keys should start with %q", ErrCredentialInvalid, credentialPrefix)
	}
	return nil
}
