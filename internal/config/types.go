// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/serverless/standalone/internal/selfupdate"
)

const (
	// RegionAuto infers the region from SLS_GEO_LOCATION and TZ.
	RegionAuto RegionMode = "auto"
	// RegionDefault always uses the GitHub releases API.
	RegionDefault RegionMode = "default"
	// RegionChina always uses the regional mirror.
	RegionChina RegionMode = "china"
)

var (
	// ErrInvalidRegion is returned when a RegionMode value is not recognized.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrInvalidTimeout is returned when a network timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout")
)

type (
	// RegionMode selects the release endpoint.
	RegionMode string

	// InvalidRegionError is returned when a RegionMode value is not recognized.
	// It wraps ErrInvalidRegion for errors.Is() compatibility.
	InvalidRegionError struct {
		Value RegionMode
	}

	// InvalidTimeoutError reports a non-positive network timeout.
	InvalidTimeoutError struct {
		Field string
		Value time.Duration
	}

	// Config holds the application configuration.
	Config struct {
		// Region selects the release endpoint: "auto", "default" or "china".
		Region RegionMode `json:"region" mapstructure:"region"`
		// InstallDir is the installation root holding the live binary.
		InstallDir string `json:"install_dir" mapstructure:"install_dir"`
		// GitHubToken authenticates GitHub API requests to raise the rate limit.
		GitHubToken string `json:"github_token" mapstructure:"github_token"`
		// Network bounds the release server requests.
		Network NetworkConfig `json:"network" mapstructure:"network"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// NetworkConfig configures release server requests.
	NetworkConfig struct {
		CheckTimeout    time.Duration `json:"check_timeout" mapstructure:"check_timeout"`
		DownloadTimeout time.Duration `json:"download_timeout" mapstructure:"download_timeout"`
		// UserAgent overrides the User-Agent header; empty means serverless-standalone/<version>.
		UserAgent string `json:"user_agent" mapstructure:"user_agent"`
		// Mirror is the base URL of the regional release mirror.
		Mirror string `json:"mirror" mapstructure:"mirror"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging and the remediation guide on failure.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("invalid region %q (valid: auto, default, china)", e.Value)
}

// Unwrap returns ErrInvalidRegion.
func (e *InvalidRegionError) Unwrap() error { return ErrInvalidRegion }

func (e *InvalidTimeoutError) Error() string {
	return fmt.Sprintf("%s must be positive, got %s", e.Field, e.Value)
}

// Unwrap returns ErrInvalidTimeout.
func (e *InvalidTimeoutError) Unwrap() error { return ErrInvalidTimeout }

// String returns the string representation of the RegionMode.
func (r RegionMode) String() string { return string(r) }

// Validate returns nil if the RegionMode is one of the defined values.
func (r RegionMode) Validate() error {
	switch r {
	case RegionAuto, RegionDefault, RegionChina:
		return nil
	default:
		return &InvalidRegionError{Value: r}
	}
}

// Validate checks the fields CUE cannot: the region enum after env overrides
// and timeouts parsed from duration strings.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Region.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Network.CheckTimeout <= 0 {
		errs = append(errs, &InvalidTimeoutError{Field: "network.check_timeout", Value: c.Network.CheckTimeout})
	}
	if c.Network.DownloadTimeout <= 0 {
		errs = append(errs, &InvalidTimeoutError{Field: "network.download_timeout", Value: c.Network.DownloadTimeout})
	}
	if u, err := url.Parse(c.Network.Mirror); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("network.mirror must be an absolute http(s) URL, got %q", c.Network.Mirror))
	}
	if strings.TrimSpace(c.InstallDir) == "" {
		errs = append(errs, errors.New("install_dir must not be empty"))
	}
	return errors.Join(errs...)
}

// DefaultConfig returns the default configuration. InstallDir is left empty
// when the home directory cannot be resolved.
func DefaultConfig() *Config {
	installDir, err := selfupdate.DefaultInstallDir()
	if err != nil {
		installDir = ""
	}
	return &Config{
		Region:     RegionAuto,
		InstallDir: installDir,
		Network: NetworkConfig{
			CheckTimeout:    selfupdate.DefaultCheckTimeout,
			DownloadTimeout: selfupdate.DefaultDownloadTimeout,
			Mirror:          selfupdate.DefaultMirror,
		},
		UI: UIConfig{Verbose: false},
	}
}
