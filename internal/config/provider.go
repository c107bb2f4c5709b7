// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath string
	}

	// Loaded is a decoded configuration together with the file it came from.
	Loaded struct {
		*Config
		// Path is the CUE file that was merged, empty when only defaults and
		// the environment applied.
		Path string
	}

	// Provider loads configuration from explicit options. The CLI depends on
	// this interface so tests can hand it a fixed Config.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Loaded, error)
	}

	fileProvider struct{}
)

// NewProvider creates a Provider backed by the config file and the environment.
func NewProvider() Provider {
	return fileProvider{}
}

// Load layers defaults, the config file and SERVERLESS_* variables.
func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Path: path}, nil
}
