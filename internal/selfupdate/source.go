// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultGitHubAPI is the releases API host used outside restricted regions.
	DefaultGitHubAPI = "https://api.github.com"
	// DefaultGitHubDownload is the host serving release artifacts.
	DefaultGitHubDownload = "https://github.com"
	// DefaultMirror is the regional mirror serving both the tag and the artifacts.
	DefaultMirror = "https://sls-standalone-1300963013.cos.ap-shanghai.myqcloud.com"

	// RegionDefault queries the GitHub releases API.
	RegionDefault Region = 0
	// RegionChina queries the regional mirror.
	RegionChina Region = 1

	releaseRepo = "serverless/serverless"

	opCheck    = "check latest version"
	opDownload = "download artifact"
)

// ErrEmptyTag is returned when a release source answers successfully with no tag.
var ErrEmptyTag = errors.New("empty release tag")

type (
	// Region selects which of the two release endpoints is used.
	Region int

	// Endpoints holds the base URLs of the release hosts. Tests point these at
	// httptest servers.
	Endpoints struct {
		GitHubAPI      string
		GitHubDownload string
		Mirror         string
	}

	// TagSource resolves the latest published release tag.
	TagSource interface {
		LatestTag(ctx context.Context) (string, error)
	}

	// client issues the GET requests shared by tag sources and the installer.
	client struct {
		httpClient *http.Client
		userAgent  string
		token      string // only sent to GitHub hosts
		githubAPI  string
		githubWeb  string
	}
)

// String returns "default" or "china".
func (r Region) String() string {
	switch r {
	case RegionChina:
		return "china"
	case RegionDefault:
		return "default"
	}
	return "default"
}

// DefaultEndpoints returns the production release hosts.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		GitHubAPI:      DefaultGitHubAPI,
		GitHubDownload: DefaultGitHubDownload,
		Mirror:         DefaultMirror,
	}
}

func (e Endpoints) trimmed() Endpoints {
	return Endpoints{
		GitHubAPI:      strings.TrimRight(e.GitHubAPI, "/"),
		GitHubDownload: strings.TrimRight(e.GitHubDownload, "/"),
		Mirror:         strings.TrimRight(e.Mirror, "/"),
	}
}

// LatestTagURL returns the version-check endpoint for the region.
func (e Endpoints) LatestTagURL(r Region) string {
	e = e.trimmed()
	if r == RegionChina {
		return e.Mirror + "/latest-tag"
	}
	return fmt.Sprintf("%s/repos/%s/releases/latest", e.GitHubAPI, releaseRepo)
}

// ArtifactURL returns the download location of the artifact for tag and p.
// No existence check is performed.
func (e Endpoints) ArtifactURL(r Region, tag string, p Platform) string {
	e = e.trimmed()
	if r == RegionChina {
		return fmt.Sprintf("%s/%s/%s", e.Mirror, tag, p.ArtifactName())
	}
	return fmt.Sprintf("%s/%s/releases/download/%s/%s", e.GitHubDownload, releaseRepo, tag, p.ArtifactName())
}

// newTagSource returns the source the region flag selects.
func (e Endpoints) newTagSource(r Region, c *client) TagSource {
	if r == RegionChina {
		return &MirrorSource{client: c, url: e.LatestTagURL(r)}
	}
	return &GitHubSource{client: c, url: e.LatestTagURL(r)}
}

// VersionsMatch reports whether tag names currentVersion. A single leading
// non-digit is stripped from tag; the rest is compared byte-for-byte.
func VersionsMatch(tag, currentVersion string) bool {
	return StripTagPrefix(tag) == currentVersion
}

// StripTagPrefix removes one leading non-digit character, so "v1.2.3" becomes "1.2.3".
func StripTagPrefix(tag string) string {
	if tag == "" {
		return tag
	}
	if c := tag[0]; c < '0' || c > '9' {
		return tag[1:]
	}
	return tag
}

// get issues a GET with the common headers. A non-200 status is returned as a
// *RemoteRejectedError with the body already closed.
func (c *client) get(ctx context.Context, op, rawURL string, github bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if github {
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	}
	if c.token != "" && c.isGitHubHost(req.URL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &RemoteRejectedError{
			Op:             op,
			URL:            redactURL(rawURL),
			StatusCode:     resp.StatusCode,
			RateLimitReset: rateLimitReset(resp),
		}
	}

	return resp, nil
}

// isGitHubHost reports whether reqURL targets the configured API or download
// host, so the token never reaches the mirror or a redirect target.
func (c *client) isGitHubHost(reqURL *url.URL) bool {
	for _, base := range []string{c.githubAPI, c.githubWeb} {
		u, err := url.Parse(base)
		if err != nil || u.Host == "" {
			continue
		}
		if strings.EqualFold(reqURL.Host, u.Host) {
			return true
		}
	}
	return false
}

// rateLimitReset returns the quota reset time when a 403/429 response reports
// zero remaining requests, and the zero time otherwise.
func rateLimitReset(resp *http.Response) time.Time {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return time.Time{}
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "0" {
		return time.Time{}
	}
	resetUnix, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil || resetUnix <= 0 {
		return time.Time{}
	}
	return time.Unix(resetUnix, 0)
}

// redactURL strips query parameters and fragments for inclusion in errors.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
