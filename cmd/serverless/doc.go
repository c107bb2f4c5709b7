// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for the serverless standalone binary.
//
// This package implements the Cobra command hierarchy: the root command with
// its global flags, the self-maintenance commands (upgrade, uninstall) that are
// gated on the capability computed at startup, and the config inspection
// commands.
package cmd
