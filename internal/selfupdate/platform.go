// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"runtime"
)

// artifactPrefix is the fixed leading component of every release artifact name.
const artifactPrefix = "serverless"

// Platform is the artifact-naming view of a host: the release server's
// platform and architecture keys.
type Platform struct {
	OS   string // PlatformKey, e.g. "linux" or "macos"
	Arch string // ArchKey, e.g. "x64" or "armv6"
}

// PlatformKey maps a raw operating-system id to the release naming convention.
func PlatformKey(osID string) string {
	if osID == "darwin" {
		return "macos"
	}
	return osID
}

// ArchKey maps a raw architecture id to the release naming convention.
func ArchKey(archID string) string {
	switch archID {
	case "x32":
		return "x86"
	case "arm", "arm64":
		return "armv6"
	default:
		return archID
	}
}

// normalizeHostArch translates Go's GOARCH names into the raw ids the
// release server was built around. Everything else passes through.
func normalizeHostArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "x32"
	default:
		return goarch
	}
}

// PlatformFor derives the artifact platform for the given GOOS/GOARCH pair.
func PlatformFor(goos, goarch string) Platform {
	return Platform{
		OS:   PlatformKey(goos),
		Arch: ArchKey(normalizeHostArch(goarch)),
	}
}

// HostPlatform returns the artifact platform of the running process.
func HostPlatform() Platform {
	return PlatformFor(runtime.GOOS, runtime.GOARCH)
}

// ArtifactName returns the release file name, e.g. "serverless-macos-x64".
func (p Platform) ArtifactName() string {
	return fmt.Sprintf("%s-%s-%s", artifactPrefix, p.OS, p.Arch)
}

func (p Platform) String() string { return p.OS + "/" + p.Arch }
