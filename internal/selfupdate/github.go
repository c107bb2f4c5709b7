// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	// maxJSONResponseBytes is the upper bound on JSON API response size (10 MB).
	maxJSONResponseBytes = 10 << 20

	// maxTagResponseBytes bounds the plain-text mirror response.
	maxTagResponseBytes = 1 << 10
)

type (
	// GitHubSource reads tag_name from the releases API "latest" endpoint.
	GitHubSource struct {
		client *client
		url    string
	}

	// MirrorSource reads a plain-text tag from the regional mirror.
	MirrorSource struct {
		client *client
		url    string
	}

	// githubRelease is the subset of the GitHub Release payload we consume.
	githubRelease struct {
		TagName string `json:"tag_name"`
	}
)

// LatestTag fetches the latest stable release and returns its tag.
func (s *GitHubSource) LatestTag(ctx context.Context) (string, error) {
	resp, err := s.client.get(ctx, opCheck, s.url, true)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	var gr githubRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&gr); err != nil {
		return "", fmt.Errorf("decoding release from %s: %w", redactURL(s.url), err)
	}

	tag := strings.TrimSpace(gr.TagName)
	if tag == "" {
		return "", fmt.Errorf("%s: %w", redactURL(s.url), ErrEmptyTag)
	}
	return tag, nil
}

// LatestTag fetches the mirror's latest-tag document.
func (s *MirrorSource) LatestTag(ctx context.Context) (string, error) {
	resp, err := s.client.get(ctx, opCheck, s.url, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTagResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading tag from %s: %w", redactURL(s.url), err)
	}

	tag := strings.TrimSpace(string(body))
	if tag == "" {
		return "", fmt.Errorf("%s: %w", redactURL(s.url), ErrEmptyTag)
	}
	return tag, nil
}
