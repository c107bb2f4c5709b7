// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is layered as built-in defaults, then ~/.config/serverless/config.cue
// (XDG on Linux, ~/Library/Application Support on macOS, %APPDATA% on Windows, or an
// explicit --config path), then SERVERLESS_* environment variables. The file is
// validated against the embedded config_schema.cue before it is merged.
package config
