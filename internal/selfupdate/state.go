// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"fmt"
)

const (
	// StateIdle is the initial state before any request is issued.
	StateIdle State = iota
	// StateRequesting indicates the artifact request is in flight.
	StateRequesting
	// StateStreaming indicates the response body is being written to the staging file.
	StateStreaming
	// StateStaged indicates the staging file holds the complete new binary.
	StateStaged
	// StateInstalled is terminal: the staging file was renamed over the live binary and made executable.
	StateInstalled
	// StateFailed is terminal: a request, stream or install step failed.
	StateFailed
)

// ErrInvalidTransition is returned when the installer is driven out of order.
var ErrInvalidTransition = errors.New("invalid installer state transition")

type (
	// State is the lifecycle state of an Installer.
	State int32

	// InvalidTransitionError reports a rejected From→To move.
	// It wraps ErrInvalidTransition for errors.Is() compatibility.
	InvalidTransitionError struct {
		From State
		To   State
	}
)

// String returns a human-readable representation of the installer state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateStaged:
		return "staged"
	case StateInstalled:
		return "installed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the state is Installed or Failed.
func (s State) IsTerminal() bool {
	return s == StateInstalled || s == StateFailed
}

// CanTransition reports whether the installer may move from s to next.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateIdle:
		return next == StateRequesting
	case StateRequesting:
		return next == StateStreaming || next == StateFailed
	case StateStreaming:
		return next == StateStaged || next == StateFailed
	case StateStaged:
		return next == StateInstalled || next == StateFailed
	default:
		return false
	}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move installer from %s to %s", e.From, e.To)
}

// Unwrap returns ErrInvalidTransition.
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
