package finisher

import (
	"fmt"
	"strings"
	"text/template"
)

// BundleMeta is the descriptor an application bundle manifest is
// rendered from.
type BundleMeta struct {
	Name       string // display name
	Executable string // binary name inside Contents/MacOS
	BundleID   string
	Version    string
}

// infoPlistTemplate is the minimal declarative metadata manifest macOS
// requires of an application bundle.
const infoPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>{{.Name}}</string>
	<key>CFBundleDisplayName</key>
	<string>{{.Name}}</string>
	<key>CFBundleExecutable</key>
	<string>{{.Executable}}</string>
	<key>CFBundleIdentifier</key>
	<string>{{.BundleID}}</string>
	<key>CFBundleVersion</key>
	<string>{{.Version}}</string>
	<key>CFBundleShortVersionString</key>
	<string>{{.Version}}</string>
	<key>CFBundlePackageType</key>
	<string>APPL</string>
</dict>
</plist>
`

// RenderInfoPlist renders the bundle manifest. Pure: callers write the
// result to disk separately, so rendering is testable without touching
// the filesystem.
func RenderInfoPlist(meta BundleMeta) (string, error) {
	if meta.Name == "" || meta.Executable == "" {
		return "", fmt.Errorf("bundle manifest requires a name and an executable")
	}

	tmpl, err := template.New("infoplist").Parse(infoPlistTemplate)
	if err != nil {
		return "", fmt.Errorf("parse manifest template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, meta); err != nil {
		return "", fmt.Errorf("render manifest: %w", err)
	}
	return sb.String(), nil
}
