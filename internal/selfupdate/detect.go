// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	// modulePath is the Go module path used to confirm go-install origin.
	modulePath = "github.com/serverless/standalone"

	// goBuildDirPrefix is the name prefix of the temporary work directories
	// `go run` links binaries into.
	goBuildDirPrefix = "go-build"

	// ContextUnknown is the zero value; DetectContext never returns it.
	ContextUnknown ExecContext = 0
	// ContextStandalone is a release binary that carries its own runtime.
	ContextStandalone ExecContext = 1
	// ContextGoRun is a binary linked on the fly by `go run`.
	ContextGoRun ExecContext = 2
	// ContextGoInstall is a binary built from source with `go install`.
	ContextGoInstall ExecContext = 3
)

var (
	// buildFlavor is set via -ldflags by the release pipeline ("standalone")
	// or by source builds ("source"). When non-empty it overrides path heuristics.
	//
	//nolint:gochecknoglobals // Build-time ldflags injection requires a package-level variable.
	buildFlavor string

	//nolint:gochecknoglobals // Test seam for debug.ReadBuildInfo.
	readBuildInfo = debug.ReadBuildInfo
)

type (
	// ExecContext identifies how the running binary was produced.
	ExecContext int

	// Capability is computed once at process start and gates both upgrade
	// and uninstall.
	Capability struct {
		Context ExecContext
		GOOS    string
	}
)

// String returns a human-readable name for the execution context.
func (c ExecContext) String() string {
	switch c {
	case ContextStandalone:
		return "standalone"
	case ContextGoRun:
		return "go-run"
	case ContextGoInstall:
		return "go-install"
	case ContextUnknown:
		return "unknown"
	}
	return "unknown"
}

// Standalone reports whether the binary is a self-contained release build.
func (c Capability) Standalone() bool { return c.Context == ContextStandalone }

// Supported reports whether upgrade and uninstall may run: the binary must be
// standalone and the host must not be Windows.
func (c Capability) Supported() bool {
	return c.Standalone() && c.GOOS != "windows"
}

// DetectCapability resolves the running executable and classifies it.
// A failure to resolve the executable path is treated as not standalone.
func DetectCapability() Capability {
	execPath, err := resolveExecPath()
	if err != nil {
		return Capability{Context: ContextGoRun, GOOS: runtime.GOOS}
	}
	return Capability{Context: DetectContext(execPath), GOOS: runtime.GOOS}
}

// DetectContext determines how the binary at execPath was produced.
// Detection priority:
//  1. Build-time ldflags hint
//  2. `go run` build cache location
//  3. $GOPATH/bin plus a matching module path in build info
//  4. Standalone
func DetectContext(execPath string) ExecContext {
	if buildFlavor != "" {
		return parseFlavor(buildFlavor)
	}

	if isGoRunBinary(execPath) {
		return ContextGoRun
	}

	// Both conditions are required so a release binary copied into
	// GOPATH/bin by hand still counts as standalone.
	if isInGOPATHBin(execPath) && hasModulePath() {
		return ContextGoInstall
	}

	return ContextStandalone
}

func parseFlavor(flavor string) ExecContext {
	switch strings.ToLower(flavor) {
	case "standalone":
		return ContextStandalone
	case "source", "goinstall":
		return ContextGoInstall
	case "gorun":
		return ContextGoRun
	default:
		return ContextGoInstall
	}
}

// isGoRunBinary checks for the <tmp>/go-build<N>/.../exe/<name> layout used by `go run`.
func isGoRunBinary(execPath string) bool {
	tmp := filepath.Clean(os.TempDir())
	clean := filepath.Clean(execPath)
	if !strings.HasPrefix(clean, tmp+string(filepath.Separator)) {
		return false
	}
	rel := strings.TrimPrefix(clean, tmp+string(filepath.Separator))
	return strings.HasPrefix(rel, goBuildDirPrefix)
}

// isInGOPATHBin checks whether the given path is inside $GOPATH/bin, falling
// back to ~/go when GOPATH is unset.
func isInGOPATHBin(execPath string) bool {
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		gopath = filepath.Join(home, "go")
	}

	gopathBin := filepath.Clean(filepath.Join(gopath, "bin"))
	cleanExec := filepath.Clean(execPath)

	return strings.HasPrefix(cleanExec, gopathBin+string(filepath.Separator)) ||
		cleanExec == gopathBin
}

func hasModulePath() bool {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return false
	}
	return strings.Contains(info.Path, modulePath)
}

// resolveExecPath returns the absolute, symlink-resolved path to the running binary.
func resolveExecPath() (string, error) {
	p, err := osExecutable()
	if err != nil {
		return "", err
	}
	return evalSymlinks(p)
}
