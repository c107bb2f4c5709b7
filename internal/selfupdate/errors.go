// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// KindUnknown is returned by KindOf for errors that did not originate here.
	KindUnknown Kind = iota
	// KindUnsupportedContext means the capability gate rejected the command.
	KindUnsupportedContext
	// KindRemoteRejected means a release server answered with a non-success status.
	KindRemoteRejected
	// KindTransferFailed means the artifact stream broke before it was fully staged.
	KindTransferFailed
	// KindInstallFailed means the staged binary could not be renamed or made executable.
	KindInstallFailed
	// KindRemovalFailed means the installation directory could not be deleted.
	KindRemovalFailed
)

var (
	// ErrUnsupportedContext is wrapped by UnsupportedContextError.
	ErrUnsupportedContext = errors.New("unsupported execution context")
	// ErrRemoteRejected is wrapped by RemoteRejectedError.
	ErrRemoteRejected = errors.New("server rejected request")
	// ErrTransferFailed is wrapped by TransferError.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrInstallFailed is wrapped by InstallError.
	ErrInstallFailed = errors.New("install failed")
	// ErrRemovalFailed is wrapped by RemovalError.
	ErrRemovalFailed = errors.New("removal failed")

	// ErrNotDirectory is the cause of a RemovalError when the install path exists
	// but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

type (
	// Kind classifies the terminal failure of an upgrade or uninstall.
	Kind int

	// UnsupportedContextError is returned when upgrade or uninstall is invoked
	// outside a standalone executable or on Windows.
	UnsupportedContextError struct {
		Command string
	}

	// RemoteRejectedError carries the status code of a failed version check or
	// artifact download. RateLimitReset is set when the GitHub API reported an
	// exhausted quota.
	RemoteRejectedError struct {
		Op             string // "check latest version" or "download artifact"
		URL            string
		StatusCode     int
		RateLimitReset time.Time
	}

	// TransferError reports a network or disk failure while streaming the
	// artifact into the staging file.
	TransferError struct {
		URL  string
		Path string
		Err  error
	}

	// InstallError reports a failure of the rename or chmod step.
	InstallError struct {
		Op   string // "stage", "rename" or "chmod"
		Path string
		Err  error
	}

	// RemovalError reports a failure to delete the installation directory.
	RemovalError struct {
		Path string
		Err  error
	}
)

// String returns the kind name used in logs and the issue catalog.
func (k Kind) String() string {
	switch k {
	case KindUnsupportedContext:
		return "UnsupportedContext"
	case KindRemoteRejected:
		return "RemoteRejected"
	case KindTransferFailed:
		return "TransferFailed"
	case KindInstallFailed:
		return "InstallFailed"
	case KindRemovalFailed:
		return "RemovalFailed"
	case KindUnknown:
		return "Unknown"
	}
	return "Unknown"
}

// KindOf reports which of the five failure kinds err belongs to.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrUnsupportedContext):
		return KindUnsupportedContext
	case errors.Is(err, ErrRemoteRejected):
		return KindRemoteRejected
	case errors.Is(err, ErrTransferFailed):
		return KindTransferFailed
	case errors.Is(err, ErrInstallFailed):
		return KindInstallFailed
	case errors.Is(err, ErrRemovalFailed):
		return KindRemovalFailed
	default:
		return KindUnknown
	}
}

func (e *UnsupportedContextError) Error() string {
	return fmt.Sprintf("`%s` command is supported only in context of a standalone executable instance in non Windows environment", e.Command)
}

// Unwrap returns ErrUnsupportedContext.
func (e *UnsupportedContextError) Unwrap() error { return ErrUnsupportedContext }

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("unable to %s at %s (server rejected request with status code %d)", e.Op, e.URL, e.StatusCode)
}

// Unwrap returns ErrRemoteRejected.
func (e *RemoteRejectedError) Unwrap() error { return ErrRemoteRejected }

// RateLimited reports whether the rejection was caused by an exhausted API quota.
func (e *RemoteRejectedError) RateLimited() bool { return !e.RateLimitReset.IsZero() }

func (e *TransferError) Error() string {
	return fmt.Sprintf("streaming %s to %s: %v", e.URL, e.Path, e.Err)
}

// Unwrap exposes both ErrTransferFailed and the underlying cause.
func (e *TransferError) Unwrap() []error { return []error{ErrTransferFailed, e.Err} }

func (e *InstallError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrInstallFailed and the underlying cause.
func (e *InstallError) Unwrap() []error { return []error{ErrInstallFailed, e.Err} }

func (e *RemovalError) Error() string {
	return fmt.Sprintf("removing %s: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrRemovalFailed and the underlying cause.
func (e *RemovalError) Unwrap() []error { return []error{ErrRemovalFailed, e.Err} }

// ArtifactMissing reports whether the release server has no artifact for the
// resolved tag and platform.
func (e *RemoteRejectedError) ArtifactMissing() bool {
	return e.Op == opDownload && e.StatusCode == http.StatusNotFound
}
