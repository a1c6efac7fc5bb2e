// Package toolchain provisions the isolated packaging toolchain: a
// fresh directory recreated before every build target, populated with
// the downloaded and verified packaging tool and any platform-specific
// auxiliary tool.
package toolchain

import (
	"errors"
	"time"
)

// ErrProvision wraps any failure while establishing the toolchain.
// Provision failures are fatal for the current target only; a
// multi-target run continues with the next target.
var ErrProvision = errors.New("toolchain provisioning failed")

// DownloadSpec describes one tool to fetch. URLs are fully expanded
// (no placeholders) by the time they reach the downloader.
type DownloadSpec struct {
	Name         string // tool binary name inside the archive
	Version      string
	URL          string // tar.gz archive
	ChecksumURL  string // SHA-256 checksums file (optional)
	SignatureURL string // armored detached signature (optional)
}

// DownloadResult describes a completed download and verification.
type DownloadResult struct {
	Name         string
	Version      string
	Path         string // archive path in the cache
	Verified     VerificationMethod
	DownloadTime time.Duration
}

// VerificationMethod identifies how a download was verified.
type VerificationMethod string

const (
	VerificationGPG    VerificationMethod = "gpg"
	VerificationSHA256 VerificationMethod = "sha256"
	VerificationNone   VerificationMethod = "none"
)

// Handle describes a successfully provisioned toolchain.
type Handle struct {
	Dir          string // toolchain root (removed and recreated per target)
	BinDir       string // installed tool binaries
	PkgDir       string // installed-package tree searched for entry points
	PackagerPath string // path to the packaging tool binary
}
