// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown remediation
// guides, rendered with glamour when the CLI runs in verbose mode.
package issue
