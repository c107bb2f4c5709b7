// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultCheckTimeout bounds the version-check request.
	DefaultCheckTimeout = 30 * time.Second
	// DefaultDownloadTimeout bounds the artifact download including streaming.
	DefaultDownloadTimeout = 10 * time.Minute

	// OutcomeAlreadyLatest means the resolved tag matched the running version.
	OutcomeAlreadyLatest Outcome = iota + 1
	// OutcomeUpgraded means a new binary was installed.
	OutcomeUpgraded

	commandUpgrade   = "upgrade"
	commandUninstall = "uninstall"
)

var (
	//nolint:gochecknoglobals // Test seam for os.Executable().
	osExecutable = os.Executable

	//nolint:gochecknoglobals // Test seam for filepath.EvalSymlinks().
	evalSymlinks = filepath.EvalSymlinks
)

type (
	// Outcome distinguishes the two success results of Upgrade.
	Outcome int

	// UpgradeResult describes a successful upgrade run.
	UpgradeResult struct {
		Outcome        Outcome
		CurrentVersion string
		Tag            string
		URL            string // empty when Outcome is OutcomeAlreadyLatest
		Path           string // installed binary path
	}

	// Updater composes the capability gate, tag resolution, artifact location
	// and installer into the upgrade and uninstall pipelines.
	Updater struct {
		currentVersion  string
		capability      Capability
		paths           Paths
		region          Region
		endpoints       Endpoints
		platform        Platform
		httpClient      *http.Client
		userAgent       string
		token           string
		checkTimeout    time.Duration
		downloadTimeout time.Duration
		tags            TagSource
		logger          *log.Logger
	}

	// Option configures an Updater during construction.
	Option func(*Updater)
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyLatest:
		return "already-latest"
	case OutcomeUpgraded:
		return "upgraded"
	}
	return "unknown"
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) {
		u.httpClient = c
	}
}

// WithRegion selects the release endpoint.
func WithRegion(r Region) Option {
	return func(u *Updater) {
		u.region = r
	}
}

// WithEndpoints overrides the release hosts, primarily for test servers.
func WithEndpoints(e Endpoints) Option {
	return func(u *Updater) {
		u.endpoints = e
	}
}

// WithPlatform overrides the detected host platform.
func WithPlatform(p Platform) Option {
	return func(u *Updater) {
		u.platform = p
	}
}

// WithToken sets a GitHub token. It is only sent to GitHub hosts.
func WithToken(token string) Option {
	return func(u *Updater) {
		u.token = token
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(u *Updater) {
		u.userAgent = ua
	}
}

// WithTimeouts bounds the version check and the download. Zero keeps the default.
func WithTimeouts(check, download time.Duration) Option {
	return func(u *Updater) {
		if check > 0 {
			u.checkTimeout = check
		}
		if download > 0 {
			u.downloadTimeout = download
		}
	}
}

// WithTagSource replaces the region-selected tag source.
func WithTagSource(s TagSource) Option {
	return func(u *Updater) {
		u.tags = s
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(u *Updater) {
		u.logger = l
	}
}

// NewUpdater creates an Updater for the running build. capability is the
// value computed once at startup; installDir is the installation root that
// holds the live binary and the staging file.
func NewUpdater(currentVersion string, capability Capability, installDir string, opts ...Option) *Updater {
	u := &Updater{
		currentVersion:  currentVersion,
		capability:      capability,
		paths:           NewPaths(installDir),
		endpoints:       DefaultEndpoints(),
		platform:        HostPlatform(),
		httpClient:      http.DefaultClient,
		userAgent:       "serverless-standalone/" + currentVersion,
		checkTimeout:    DefaultCheckTimeout,
		downloadTimeout: DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = log.New(io.Discard)
	}
	if u.tags == nil {
		u.tags = u.endpoints.newTagSource(u.region, u.client())
	}
	return u
}

// Paths returns the installation paths the Updater operates on.
func (u *Updater) Paths() Paths { return u.paths }

// Upgrade resolves the latest tag and, unless it matches the running version,
// installs the matching artifact. The capability gate runs before any I/O.
func (u *Updater) Upgrade(ctx context.Context) (*UpgradeResult, error) {
	if !u.capability.Supported() {
		return nil, &UnsupportedContextError{Command: commandUpgrade}
	}

	tag, err := u.latestTag(ctx)
	if err != nil {
		return nil, err
	}

	result := &UpgradeResult{
		CurrentVersion: u.currentVersion,
		Tag:            tag,
		Path:           u.paths.Binary,
	}

	if VersionsMatch(tag, u.currentVersion) {
		u.logger.Debug("already at latest version", "tag", tag)
		result.Outcome = OutcomeAlreadyLatest
		return result, nil
	}

	result.URL = u.endpoints.ArtifactURL(u.region, tag, u.platform)
	u.logger.Info("Downloading new version...", "tag", tag)
	u.logger.Debug("downloading artifact", "url", result.URL, "platform", u.platform, "dir", u.paths.Dir)

	downloadCtx, cancel := context.WithTimeout(ctx, u.downloadTimeout)
	defer cancel()

	if err := newInstaller(u.client(), u.paths, u.logger).Install(downloadCtx, result.URL); err != nil {
		return nil, err
	}

	result.Outcome = OutcomeUpgraded
	return result, nil
}

// Uninstall removes the installation root. The capability gate runs first.
func (u *Updater) Uninstall(ctx context.Context) error {
	if !u.capability.Supported() {
		return &UnsupportedContextError{Command: commandUninstall}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u.logger.Debug("removing installation", "dir", u.paths.Dir)
	return Remove(u.paths.Dir)
}

func (u *Updater) latestTag(ctx context.Context) (string, error) {
	checkCtx, cancel := context.WithTimeout(ctx, u.checkTimeout)
	defer cancel()

	u.logger.Debug("resolving latest release", "region", u.region, "url", u.endpoints.LatestTagURL(u.region))

	tag, err := u.tags.LatestTag(checkCtx)
	if err != nil {
		return "", fmt.Errorf("resolving latest release: %w", err)
	}
	return tag, nil
}

func (u *Updater) client() *client {
	return &client{
		httpClient: u.httpClient,
		userAgent:  u.userAgent,
		token:      u.token,
		githubAPI:  u.endpoints.GitHubAPI,
		githubWeb:  u.endpoints.GitHubDownload,
	}
}
