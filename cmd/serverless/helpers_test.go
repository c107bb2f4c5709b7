// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/serverless/standalone/internal/config"
	"github.com/serverless/standalone/internal/selfupdate"
)

var (
	standaloneLinux = selfupdate.Capability{Context: selfupdate.ContextStandalone, GOOS: "linux"}
	goRunLinux      = selfupdate.Capability{Context: selfupdate.ContextGoRun, GOOS: "linux"}
	standaloneWin   = selfupdate.Capability{Context: selfupdate.ContextStandalone, GOOS: "windows"}
)

type (
	// stubConfigProvider returns a fixed configuration.
	stubConfigProvider struct {
		cfg   *config.Config
		path  string
		err   error
		calls atomic.Int32
	}

	// mirrorServer serves /latest-tag and /<tag>/serverless-linux-x64.
	mirrorServer struct {
		*httptest.Server
		tag       string
		artifact  []byte
		status    int
		downloads atomic.Int32
	}

	testApp struct {
		*App
		stdout *bytes.Buffer
		stderr *bytes.Buffer
		config *stubConfigProvider
	}
)

func (p *stubConfigProvider) Load(context.Context, config.LoadOptions) (*config.Loaded, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	cfg := *p.cfg
	return &config.Loaded{Config: &cfg, Path: p.path}, nil
}

func newMirrorServer(t *testing.T, tag string, artifact []byte, status int) *mirrorServer {
	t.Helper()

	ms := &mirrorServer{tag: tag, artifact: artifact, status: status}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/latest-tag":
			_, _ = w.Write([]byte(ms.tag + "\n"))
		case strings.HasPrefix(r.URL.Path, "/"+ms.tag+"/"):
			ms.downloads.Add(1)
			if ms.status != http.StatusOK {
				w.WriteHeader(ms.status)
				return
			}
			_, _ = w.Write(ms.artifact)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ms.Close)
	return ms
}

// newTestApp builds an App whose updater targets ms through the china region
// and installs into installDir.
func newTestApp(t *testing.T, capability selfupdate.Capability, ms *mirrorServer, installDir string) *testApp {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Region = config.RegionChina
	cfg.InstallDir = installDir
	if ms != nil {
		cfg.Network.Mirror = ms.URL
	}

	provider := &stubConfigProvider{cfg: cfg}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	app := NewApp(Dependencies{
		Config:     provider,
		Capability: &capability,
		Version:    "1.2.0",
		Getenv:     func(string) string { return "" },
		Stdout:     stdout,
		Stderr:     stderr,
		UpdaterOptions: []selfupdate.Option{
			selfupdate.WithPlatform(selfupdate.PlatformFor("linux", "amd64")),
		},
	})

	return &testApp{App: app, stdout: stdout, stderr: stderr, config: provider}
}

// run executes the root command with args.
func (a *testApp) run(t *testing.T, args ...string) error {
	t.Helper()

	root := newRootCommand(a.App)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}
