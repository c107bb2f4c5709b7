// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"io/fs"
	"os"
)

// Remove deletes dir and everything under it. A missing dir is success; a
// path that exists but is not a directory is a *RemovalError wrapping
// ErrNotDirectory.
func Remove(dir string) error {
	info, err := os.Lstat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &RemovalError{Path: dir, Err: err}
	}

	if !info.IsDir() {
		return &RemovalError{Path: dir, Err: ErrNotDirectory}
	}

	if err := os.RemoveAll(dir); err != nil {
		return &RemovalError{Path: dir, Err: err}
	}
	return nil
}
