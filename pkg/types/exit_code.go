// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the CLI and its tests.
package types

import "strconv"

// ExitCode is the process status serverless terminates with.
type ExitCode int

// Exit statuses of upgrade and uninstall. Anything the user can resolve
// (an unsupported install, missing permissions, a platform with no published
// artifact) maps to ExitUserError; network and I/O trouble maps to ExitFailure.
const (
	ExitSuccess   ExitCode = 0
	ExitUserError ExitCode = 1
	ExitFailure   ExitCode = 2
)

// IsSuccess reports whether c is ExitSuccess.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// IsUserError reports whether c asks the user to act before retrying.
func (c ExitCode) IsUserError() bool { return c == ExitUserError }

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
