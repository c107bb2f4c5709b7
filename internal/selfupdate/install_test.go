// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/serverless/standalone/internal/testutil"
)

func TestState_CanTransition(t *testing.T) {
	t.Parallel()

	allowed := map[State][]State{
		StateIdle:       {StateRequesting},
		StateRequesting: {StateStreaming, StateFailed},
		StateStreaming:  {StateStaged, StateFailed},
		StateStaged:     {StateInstalled, StateFailed},
	}
	all := []State{StateIdle, StateRequesting, StateStreaming, StateStaged, StateInstalled, StateFailed}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s.CanTransition(%s) = %v, want %v", from, to, got, want)
			}
		}
	}

	if !StateInstalled.IsTerminal() || !StateFailed.IsTerminal() || StateStaged.IsTerminal() {
		t.Error("IsTerminal must hold for exactly installed and failed")
	}
}

// writeBinary seeds path with content and returns it.
func writeBinary(t *testing.T, path string, content []byte) []byte {
	t.Helper()
	testutil.MustWriteFile(t, path, content, 0o755)
	return content
}

func TestDefaultInstallDir(t *testing.T) {
	home := t.TempDir()
	testutil.SetHomeDir(t, home)

	dir, err := DefaultInstallDir()
	if err != nil {
		t.Fatalf("DefaultInstallDir() error: %v", err)
	}
	if want := filepath.Join(home, ".serverless", "bin"); dir != want {
		t.Errorf("DefaultInstallDir() = %q, want %q", dir, want)
	}

	paths := NewPaths(dir)
	if paths.Binary != filepath.Join(dir, "serverless") || paths.Staging != filepath.Join(dir, "serverless-tmp") {
		t.Errorf("NewPaths(%q) = %+v", dir, paths)
	}
}

func TestInstaller_Install(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("new-binary"), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	paths := NewPaths(filepath.Join(t.TempDir(), "bin"))
	writeBinary(t, paths.Binary, []byte("old-binary"))
	// A stale, longer staging file must be truncated, not appended to.
	writeBinary(t, paths.Staging, bytes.Repeat([]byte("stale"), 100000))

	inst := newInstaller(newTestClient(srv, ""), paths, log.New(io.Discard))
	if err := inst.Install(context.Background(), srv.URL+"/v1.3.0/serverless-linux-x64"); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if inst.State() != StateInstalled {
		t.Errorf("State() = %s, want installed", inst.State())
	}

	got, err := os.ReadFile(paths.Binary)
	if err != nil {
		t.Fatalf("reading installed binary: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("installed binary has %d bytes, want exactly the %d downloaded bytes", len(got), len(payload))
	}

	info, err := os.Stat(paths.Binary)
	if err != nil {
		t.Fatalf("stat installed binary: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o755 {
		t.Errorf("installed mode = %o, want 755", perm)
	}
	if _, err := os.Stat(paths.Staging); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staging file still present after rename: %v", err)
	}
}

func TestInstaller_CreatesInstallDir(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("binary"))
	}))
	defer srv.Close()

	paths := NewPaths(filepath.Join(t.TempDir(), ".serverless", "bin"))
	inst := newInstaller(newTestClient(srv, ""), paths, log.New(io.Discard))
	if err := inst.Install(context.Background(), srv.URL+"/artifact"); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if _, err := os.Stat(paths.Binary); err != nil {
		t.Errorf("installed binary missing: %v", err)
	}
}

func TestInstaller_RemoteRejectedLeavesBinary(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	paths := NewPaths(t.TempDir())
	old := writeBinary(t, paths.Binary, []byte("old-binary"))

	inst := newInstaller(newTestClient(srv, ""), paths, log.New(io.Discard))
	err := inst.Install(context.Background(), srv.URL+"/v9.9.9/serverless-plan9-mips")

	var rejected *RemoteRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("Install() error = %v, want *RemoteRejectedError", err)
	}
	if rejected.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", rejected.StatusCode)
	}
	if rejected.Op != opDownload {
		t.Errorf("Op = %q, want %q", rejected.Op, opDownload)
	}
	if inst.State() != StateFailed {
		t.Errorf("State() = %s, want failed", inst.State())
	}

	got, readErr := os.ReadFile(paths.Binary)
	if readErr != nil || !bytes.Equal(got, old) {
		t.Errorf("installed binary changed: %q, %v", got, readErr)
	}
}

func TestInstaller_TransferFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Promise more bytes than are sent, then drop the connection.
		w.Header().Set("Content-Length", "1048576")
		_, _ = w.Write([]byte("partial"))
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
		}
	}))
	defer srv.Close()

	paths := NewPaths(t.TempDir())
	old := writeBinary(t, paths.Binary, []byte("old-binary"))

	inst := newInstaller(newTestClient(srv, ""), paths, log.New(io.Discard))
	err := inst.Install(context.Background(), srv.URL+"/artifact")

	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("Install() error = %v, want ErrTransferFailed", err)
	}
	if inst.State() != StateFailed {
		t.Errorf("State() = %s, want failed", inst.State())
	}

	got, _ := os.ReadFile(paths.Binary)
	if !bytes.Equal(got, old) {
		t.Errorf("installed binary changed after a broken stream")
	}
}

func TestInstaller_RenameFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("binary"))
	}))
	defer srv.Close()

	paths := NewPaths(t.TempDir())
	// A non-empty directory at the binary path makes the rename fail.
	writeBinary(t, filepath.Join(paths.Binary, "occupied"), []byte("x"))

	inst := newInstaller(newTestClient(srv, ""), paths, log.New(io.Discard))
	err := inst.Install(context.Background(), srv.URL+"/artifact")

	var installErr *InstallError
	if !errors.As(err, &installErr) {
		t.Fatalf("Install() error = %v, want *InstallError", err)
	}
	if installErr.Op != "rename" {
		t.Errorf("Op = %q, want rename", installErr.Op)
	}
	if KindOf(err) != KindInstallFailed {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindInstallFailed)
	}
}

func TestInstaller_SingleUse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("binary"))
	}))
	defer srv.Close()

	inst := newInstaller(newTestClient(srv, ""), NewPaths(t.TempDir()), log.New(io.Discard))
	if err := inst.Install(context.Background(), srv.URL); err != nil {
		t.Fatalf("first Install() error: %v", err)
	}
	if err := inst.Install(context.Background(), srv.URL); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Install() error = %v, want ErrInvalidTransition", err)
	}
}
