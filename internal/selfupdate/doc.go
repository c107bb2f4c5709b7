// SPDX-License-Identifier: MPL-2.0

// Package selfupdate implements in-place upgrade and removal of the standalone
// serverless binary.
//
// The package is organized into these concerns:
//   - detect.go: capability gate (standalone build on a non-Windows host)
//   - source.go, github.go: release endpoints and the mirror/GitHub tag sources
//   - platform.go: host platform/arch mapping to artifact names
//   - install.go, state.go: download-and-rename installer state machine
//   - remove.go: recursive removal of the installation root
//   - selfupdate.go: Updater type that composes the above into Upgrade and Uninstall
package selfupdate
