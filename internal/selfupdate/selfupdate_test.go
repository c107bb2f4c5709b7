// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var supported = Capability{Context: ContextStandalone, GOOS: "linux"}

// releaseServer serves both the GitHub API and the mirror layout from one
// httptest server, counting every request it sees.
type releaseServer struct {
	*httptest.Server
	tag       string
	artifact  []byte
	status    int // artifact status; 0 means 200
	requests  atomic.Int32
	downloads atomic.Int32
	lastPath  atomic.Value
}

func newReleaseServer(t *testing.T, tag string, artifact []byte, status int) *releaseServer {
	t.Helper()

	rs := &releaseServer{tag: tag, artifact: artifact, status: status}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.requests.Add(1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/releases/latest"):
			fmt.Fprintf(w, `{"tag_name": %q}`, rs.tag)
		case strings.HasSuffix(r.URL.Path, "/latest-tag"):
			fmt.Fprint(w, rs.tag)
		default:
			rs.downloads.Add(1)
			rs.lastPath.Store(r.URL.Path)
			if rs.status != 0 {
				w.WriteHeader(rs.status)
				return
			}
			_, _ = w.Write(rs.artifact)
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *releaseServer) endpoints() Endpoints {
	return Endpoints{GitHubAPI: rs.URL, GitHubDownload: rs.URL, Mirror: rs.URL}
}

func newTestUpdater(t *testing.T, rs *releaseServer, dir string, opts ...Option) *Updater {
	t.Helper()
	base := []Option{
		WithEndpoints(rs.endpoints()),
		WithHTTPClient(rs.Client()),
		WithPlatform(PlatformFor("darwin", "amd64")),
	}
	return NewUpdater("1.2.3", supported, dir, append(base, opts...)...)
}

func TestUpdater_Upgrade_AlreadyLatest(t *testing.T) {
	t.Parallel()

	rs := newReleaseServer(t, "v1.2.3", []byte("unused"), 0)
	dir := filepath.Join(t.TempDir(), "bin")

	res, err := newTestUpdater(t, rs, dir).Upgrade(context.Background())
	if err != nil {
		t.Fatalf("Upgrade() error: %v", err)
	}
	if res.Outcome != OutcomeAlreadyLatest {
		t.Errorf("Outcome = %s, want already-latest", res.Outcome)
	}
	if res.URL != "" {
		t.Errorf("URL = %q, want empty", res.URL)
	}
	if n := rs.downloads.Load(); n != 0 {
		t.Errorf("downloads = %d, want 0", n)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("install dir touched on already-latest: %v", err)
	}
}

func TestUpdater_Upgrade_Installs(t *testing.T) {
	t.Parallel()

	for _, region := range []Region{RegionDefault, RegionChina} {
		t.Run(region.String(), func(t *testing.T) {
			t.Parallel()

			payload := []byte("serverless v1.3.0")
			rs := newReleaseServer(t, "v1.3.0", payload, 0)
			dir := t.TempDir()

			res, err := newTestUpdater(t, rs, dir, WithRegion(region)).Upgrade(context.Background())
			if err != nil {
				t.Fatalf("Upgrade() error: %v", err)
			}
			if res.Outcome != OutcomeUpgraded {
				t.Errorf("Outcome = %s, want upgraded", res.Outcome)
			}
			if res.Tag != "v1.3.0" {
				t.Errorf("Tag = %q", res.Tag)
			}
			if !strings.Contains(res.URL, "/v1.3.0/serverless-macos-x64") {
				t.Errorf("URL = %q, want tag and mapped platform", res.URL)
			}
			if got, _ := rs.lastPath.Load().(string); !strings.HasSuffix(got, "/v1.3.0/serverless-macos-x64") {
				t.Errorf("downloaded path = %q", got)
			}

			got, err := os.ReadFile(filepath.Join(dir, BinaryName))
			if err != nil || !bytes.Equal(got, payload) {
				t.Errorf("installed binary = %q, %v", got, err)
			}
		})
	}
}

func TestUpdater_Upgrade_ArtifactNotFound(t *testing.T) {
	t.Parallel()

	rs := newReleaseServer(t, "v1.3.0", nil, http.StatusNotFound)
	dir := t.TempDir()
	old := writeBinary(t, filepath.Join(dir, BinaryName), []byte("old"))

	_, err := newTestUpdater(t, rs, dir).Upgrade(context.Background())
	if KindOf(err) != KindRemoteRejected {
		t.Fatalf("Upgrade() error = %v, want RemoteRejected", err)
	}

	var rejected *RemoteRejectedError
	if !errors.As(err, &rejected) || !rejected.ArtifactMissing() {
		t.Errorf("error = %v, want missing artifact (404 on download)", err)
	}

	got, _ := os.ReadFile(filepath.Join(dir, BinaryName))
	if !bytes.Equal(got, old) {
		t.Errorf("installed binary changed after 404")
	}
}

func TestUpdater_Upgrade_CheckRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := NewUpdater("1.2.3", supported, t.TempDir(),
		WithEndpoints(Endpoints{GitHubAPI: srv.URL}), WithHTTPClient(srv.Client()))

	_, err := u.Upgrade(context.Background())
	var rejected *RemoteRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Upgrade() error = %v, want *RemoteRejectedError", err)
	}
	if rejected.Op != opCheck || rejected.StatusCode != http.StatusInternalServerError {
		t.Errorf("rejected = %+v", rejected)
	}
}

type stubTagSource struct {
	tag   string
	err   error
	calls atomic.Int32
}

func (s *stubTagSource) LatestTag(context.Context) (string, error) {
	s.calls.Add(1)
	return s.tag, s.err
}

func TestUpdater_UnsupportedContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cap  Capability
	}{
		{name: "source build", cap: Capability{Context: ContextGoInstall, GOOS: "linux"}},
		{name: "windows", cap: Capability{Context: ContextStandalone, GOOS: "windows"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
			}))
			defer srv.Close()

			dir := t.TempDir()
			marker := writeBinary(t, filepath.Join(dir, BinaryName), []byte("live"))
			tags := &stubTagSource{tag: "v9.0.0"}

			u := NewUpdater("1.2.3", tt.cap, dir,
				WithEndpoints(Endpoints{GitHubAPI: srv.URL, GitHubDownload: srv.URL, Mirror: srv.URL}),
				WithHTTPClient(srv.Client()), WithTagSource(tags))

			_, upErr := u.Upgrade(context.Background())
			var unsupported *UnsupportedContextError
			if !errors.As(upErr, &unsupported) || unsupported.Command != "upgrade" {
				t.Errorf("Upgrade() error = %v, want UnsupportedContext for upgrade", upErr)
			}

			unErr := u.Uninstall(context.Background())
			if !errors.As(unErr, &unsupported) || unsupported.Command != "uninstall" {
				t.Errorf("Uninstall() error = %v, want UnsupportedContext for uninstall", unErr)
			}
			if !strings.Contains(unErr.Error(), "standalone executable") || !strings.Contains(unErr.Error(), "non Windows") {
				t.Errorf("message %q must name both conditions", unErr.Error())
			}

			if n := hits.Load(); n != 0 {
				t.Errorf("network requests = %d, want 0", n)
			}
			if n := tags.calls.Load(); n != 0 {
				t.Errorf("tag source calls = %d, want 0", n)
			}
			got, err := os.ReadFile(filepath.Join(dir, BinaryName))
			if err != nil || !bytes.Equal(got, marker) {
				t.Errorf("filesystem touched: %q, %v", got, err)
			}
		})
	}
}

func TestUpdater_Upgrade_TagSourceError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	u := NewUpdater("1.2.3", supported, t.TempDir(), WithTagSource(&stubTagSource{err: cause}))

	if _, err := u.Upgrade(context.Background()); !errors.Is(err, cause) {
		t.Errorf("Upgrade() error = %v, want wrapped cause", err)
	}
}

func TestUpdater_Upgrade_DownloadTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/releases/latest") {
			fmt.Fprint(w, `{"tag_name": "v2.0.0"}`)
			return
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	dir := t.TempDir()
	u := NewUpdater("1.2.3", supported, dir,
		WithEndpoints(Endpoints{GitHubAPI: srv.URL, GitHubDownload: srv.URL}),
		WithHTTPClient(srv.Client()),
		WithTimeouts(0, 50*time.Millisecond))

	_, err := u.Upgrade(context.Background())
	if !errors.Is(err, ErrTransferFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Upgrade() error = %v, want TransferFailed caused by deadline", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, BinaryName)); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("binary appeared after timeout: %v", statErr)
	}
}

func TestUpdater_Uninstall_Idempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), ".serverless", "bin")
	writeBinary(t, filepath.Join(dir, BinaryName), []byte("live"))
	writeBinary(t, filepath.Join(dir, StagingName), []byte("stale"))

	u := NewUpdater("1.2.3", supported, dir, WithTagSource(&stubTagSource{}))
	for i := range 2 {
		if err := u.Uninstall(context.Background()); err != nil {
			t.Fatalf("Uninstall() run %d error: %v", i+1, err)
		}
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("install dir still present: %v", err)
	}
}

func TestRemove_NotDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bin")
	writeBinary(t, path, []byte("file, not dir"))

	err := Remove(path)
	if !errors.Is(err, ErrNotDirectory) || KindOf(err) != KindRemovalFailed {
		t.Errorf("Remove() error = %v, want RemovalFailed wrapping ErrNotDirectory", err)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Kind
	}{
		{err: nil, want: KindUnknown},
		{err: errors.New("other"), want: KindUnknown},
		{err: &UnsupportedContextError{Command: "upgrade"}, want: KindUnsupportedContext},
		{err: fmt.Errorf("wrapped: %w", &RemoteRejectedError{StatusCode: 500}), want: KindRemoteRejected},
		{err: &TransferError{Err: os.ErrDeadlineExceeded}, want: KindTransferFailed},
		{err: &InstallError{Op: "chmod", Err: os.ErrPermission}, want: KindInstallFailed},
		{err: &RemovalError{Err: os.ErrPermission}, want: KindRemovalFailed},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}

	// Both the sentinel and the underlying cause are reachable.
	err := &InstallError{Op: "rename", Path: "/x", Err: os.ErrPermission}
	if !errors.Is(err, ErrInstallFailed) || !errors.Is(err, os.ErrPermission) {
		t.Errorf("InstallError must unwrap to both sentinel and cause")
	}
}
