package platform

import (
	"fmt"
	"strings"
)

// normalizeArch converts GOARCH values to normalized architecture names.
// The pipeline produces distributables for amd64 and arm64 only.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s (supported: amd64, arm64)", arch)
	}
}

// normalizeIdentifier converts platform identifiers to lowercase for
// consistency across gopsutil versions.
func normalizeIdentifier(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
