// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that touch the home directory
// and the installation tree, failing the test immediately on setup errors.
package testutil
