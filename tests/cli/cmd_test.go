// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// TestMain builds the binary twice: once as a standalone release build and
// once with the source build flavor, so scripts can exercise both sides of
// the capability gate.
package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

const (
	modulePath = "github.com/serverless/standalone"

	// releasedVersion is baked into both binaries through -ldflags.
	releasedVersion = "1.2.0"
	// newerTag is served by the "new release" mirror.
	newerTag = "v1.3.0"
	// newerArtifact is the body served for any artifact under newerTag.
	newerArtifact = "#!/bin/sh\necho serverless 1.3.0\n"
)

var (
	// standaloneBinary is built with buildFlavor=standalone.
	standaloneBinary string
	// sourceBinary is built with buildFlavor=source.
	sourceBinary string
	// projectRoot is the path to the project root.
	projectRoot string
)

func TestMain(m *testing.M) {
	wd, err := os.Getwd()
	if err != nil {
		panic("failed to get working directory: " + err.Error())
	}

	// Walk up to find go.mod
	projectRoot = wd
	for {
		if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(projectRoot)
		if parent == projectRoot {
			panic("could not find project root (go.mod)")
		}
		projectRoot = parent
	}

	binaryName := "serverless"
	if runtime.GOOS == "windows" {
		binaryName = "serverless.exe"
	}

	standaloneBinary = filepath.Join(projectRoot, "bin", "standalone", binaryName)
	sourceBinary = filepath.Join(projectRoot, "bin", "source", binaryName)

	build(standaloneBinary, "standalone")
	build(sourceBinary, "source")

	os.Exit(m.Run())
}

func build(out, flavor string) {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		panic("failed to create bin directory: " + err.Error())
	}

	ldflags := strings.Join([]string{
		"-X", modulePath + "/internal/selfupdate.buildFlavor=" + flavor,
		"-X", modulePath + "/cmd/serverless.Version=" + releasedVersion,
	}, " ")

	cmd := exec.CommandContext(context.Background(), "go", "build", "-ldflags", ldflags, "-o", out, ".")
	cmd.Dir = projectRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build " + flavor + " binary: " + err.Error())
	}
}

// newMirror serves a plain-text latest tag and any artifact below it.
func newMirror(t *testing.T, tag, artifact string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/latest-tag":
			_, _ = w.Write([]byte(tag + "\n"))
		case strings.HasPrefix(r.URL.Path, "/"+tag+"/serverless-"):
			_, _ = w.Write([]byte(artifact))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("scripts assume a POSIX host")
	}

	current := newMirror(t, "v"+releasedVersion, "")
	newer := newMirror(t, newerTag, newerArtifact)

	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			home := filepath.Join(env.WorkDir, "home")

			env.Setenv("STANDALONE", standaloneBinary)
			env.Setenv("SOURCE", sourceBinary)
			env.Setenv("HOME", home)
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(env.WorkDir, "config"))
			env.Setenv("SERVERLESS_REGION", "china")
			env.Setenv("SERVERLESS_NETWORK_MIRROR", current.URL)
			env.Setenv("MIRROR_CURRENT", current.URL)
			env.Setenv("MIRROR_NEWER", newer.URL)
			env.Setenv("INSTALL_DIR", filepath.Join(home, ".serverless", "bin"))

			return nil
		},
		// Continue running all tests even if one fails
		ContinueOnError: true,
	})
}
