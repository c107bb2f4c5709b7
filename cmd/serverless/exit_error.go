// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/serverless/standalone/pkg/types"
)

// ExitError carries the process exit code out of a RunE handler whose error
// output has already been written. Execute exits with Code and prints nothing
// further.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %s", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error so selfupdate sentinels stay reachable.
func (e *ExitError) Unwrap() error { return e.Err }

// exitCodeOf returns the code Execute exits with for err. Errors that did not
// pass through a handler (flag parsing, unknown commands) exit with 1.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitUserError
}
