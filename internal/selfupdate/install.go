// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

const (
	// BinaryName is the file name of the live installed binary.
	BinaryName = "serverless"
	// StagingName is the file name the artifact is streamed into before the swap.
	StagingName = "serverless-tmp"

	// binaryMode is applied to the installed binary after the rename.
	binaryMode os.FileMode = 0o755
	dirMode    os.FileMode = 0o755
)

type (
	// Paths are the fixed locations under one installation root.
	Paths struct {
		Dir     string
		Binary  string
		Staging string
	}

	// Installer downloads one artifact and swaps it over the live binary.
	// It is single use and not safe for concurrent use; two processes
	// installing into the same Dir race on the staging file.
	Installer struct {
		client *client
		paths  Paths
		logger *log.Logger
		state  State
	}
)

// NewPaths returns the binary and staging paths under dir.
func NewPaths(dir string) Paths {
	return Paths{
		Dir:     dir,
		Binary:  filepath.Join(dir, BinaryName),
		Staging: filepath.Join(dir, StagingName),
	}
}

// DefaultInstallDir returns <home>/.serverless/bin.
func DefaultInstallDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".serverless", "bin"), nil
}

func newInstaller(c *client, paths Paths, logger *log.Logger) *Installer {
	return &Installer{client: c, paths: paths, logger: logger, state: StateIdle}
}

// State returns the current lifecycle state.
func (i *Installer) State() State { return i.state }

func (i *Installer) transition(next State) error {
	if !i.state.CanTransition(next) {
		return &InvalidTransitionError{From: i.state, To: next}
	}
	i.logger.Debug("installer state", "from", i.state, "to", next)
	i.state = next
	return nil
}

// fail moves to StateFailed and returns err unchanged.
func (i *Installer) fail(err error) error {
	if i.state.CanTransition(StateFailed) {
		i.logger.Debug("installer state", "from", i.state, "to", StateFailed, "err", err)
		i.state = StateFailed
	}
	return err
}

// Install downloads artifactURL into the staging file, renames it over the
// live binary and marks it executable. The live binary is untouched unless
// the rename succeeds.
func (i *Installer) Install(ctx context.Context, artifactURL string) error {
	if err := i.transition(StateRequesting); err != nil {
		return err
	}

	if err := os.MkdirAll(i.paths.Dir, dirMode); err != nil {
		return i.fail(&InstallError{Op: "stage", Path: i.paths.Dir, Err: err})
	}

	resp, err := i.client.get(ctx, opDownload, artifactURL, false)
	if err != nil {
		if errors.Is(err, ErrRemoteRejected) {
			return i.fail(err)
		}
		return i.fail(&TransferError{URL: redactURL(artifactURL), Path: i.paths.Staging, Err: err})
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if err := i.transition(StateStreaming); err != nil {
		return err
	}

	if err := i.stream(resp.Body, artifactURL); err != nil {
		return i.fail(err)
	}

	if err := i.transition(StateStaged); err != nil {
		return err
	}

	// The rename is the swap point: failure here leaves the prior binary live.
	if err := os.Rename(i.paths.Staging, i.paths.Binary); err != nil {
		return i.fail(&InstallError{Op: "rename", Path: i.paths.Binary, Err: err})
	}

	if err := os.Chmod(i.paths.Binary, binaryMode); err != nil {
		return i.fail(&InstallError{Op: "chmod", Path: i.paths.Binary, Err: err})
	}

	return i.transition(StateInstalled)
}

// stream truncates the staging file and copies body into it. Any leftover
// staging file from an earlier attempt is overwritten unconditionally.
func (i *Installer) stream(body io.Reader, artifactURL string) error {
	f, err := os.OpenFile(i.paths.Staging, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, binaryMode)
	if err != nil {
		return &InstallError{Op: "stage", Path: i.paths.Staging, Err: err}
	}

	transferErr := func(cause error) error {
		return &TransferError{URL: redactURL(artifactURL), Path: i.paths.Staging, Err: cause}
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return transferErr(err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return transferErr(err)
	}
	if err := f.Close(); err != nil {
		return transferErr(err)
	}
	return nil
}
