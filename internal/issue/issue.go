// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	UnsupportedContextId Id = iota + 1
	RemoteRejectedId
	RateLimitedId
	ArtifactNotFoundId
	TransferFailedId
	InstallFailedId
	RemovalFailedId
	PermissionDeniedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render returns the issue as terminal-styled markdown. stylePath is a
// glamour style name such as "dark", "light" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

const (
	installDocs  HttpLink = "https://www.serverless.com/framework/docs/install-standalone"
	releasesPage HttpLink = "https://github.com/serverless/serverless/releases"
)

var (
	render = glamour.Render

	unsupportedContextIssue = &Issue{
		id: UnsupportedContextId,
		mdMsg: `
# Self-management is not available here

` + "`upgrade`" + ` and ` + "`uninstall`" + ` only work for the standalone executable, and
never on Windows.

## Things you can try:
- If you installed from source, rebuild or reinstall with the same toolchain:
~~~
$ go install github.com/serverless/standalone@latest
~~~
- On Windows, download the new release manually or use your package manager`,
		docLinks: []HttpLink{installDocs},
	}

	remoteRejectedIssue = &Issue{
		id: RemoteRejectedId,
		mdMsg: `
# The release server rejected the request

The version check or the artifact download answered with a non-success status.
Nothing was changed on disk.

## Things you can try:
- Retry later; release hosts are occasionally unavailable
- If you are in mainland China, switch to the regional mirror:
~~~
$ SERVERLESS_REGION=china serverless upgrade
~~~`,
		docLinks: []HttpLink{installDocs},
		extLinks: []HttpLink{releasesPage},
	}

	rateLimitedIssue = &Issue{
		id: RateLimitedId,
		mdMsg: `
# GitHub API rate limit exceeded

Anonymous requests to the GitHub API are limited to 60 per hour.

## Things you can try:
- Provide a token to raise the limit:
~~~
$ GITHUB_TOKEN=ghp_... serverless upgrade
~~~
- Or wait until the limit resets and try again`,
		docLinks: []HttpLink{installDocs},
		extLinks: []HttpLink{"https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api"},
	}

	artifactNotFoundIssue = &Issue{
		id: ArtifactNotFoundId,
		mdMsg: `
# No release artifact for this platform

The latest release does not publish a binary for your operating system and
CPU architecture. Your installed binary was left untouched.

## Things you can try:
- Check the assets of the latest release for a matching ` + "`serverless-<platform>-<arch>`" + ` file
- Install from source instead`,
		docLinks: []HttpLink{installDocs},
		extLinks: []HttpLink{releasesPage},
	}

	transferFailedIssue = &Issue{
		id: TransferFailedId,
		mdMsg: `
# Download interrupted

The connection dropped or the disk filled up while the new binary was being
written to the staging file. The live binary was not replaced, and the next
attempt overwrites the staging file from scratch.

## Things you can try:
- Check your network connection and free disk space, then retry
- Raise ` + "`network.download_timeout`" + ` in your configuration for slow links`,
		docLinks: []HttpLink{installDocs},
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Could not activate the new binary

The download completed but renaming it over the installed binary, or marking it
executable, failed.

## Things you can try:
- Check ownership of the installation directory:
~~~
$ ls -la ~/.serverless/bin
~~~
- Make sure no other ` + "`serverless upgrade`" + ` is running at the same time`,
		docLinks: []HttpLink{installDocs},
	}

	removalFailedIssue = &Issue{
		id: RemovalFailedId,
		mdMsg: `
# Could not remove the installation

Deleting the installation directory failed part way.

## Things you can try:
- Check that the path is a directory you own
- Remove it manually:
~~~
$ rm -rf ~/.serverless/bin
~~~`,
		docLinks: []HttpLink{installDocs},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

The installation directory is not writable by the current user.

## Things you can try:
- Fix the ownership instead of running as root:
~~~
$ sudo chown -R "$USER" ~/.serverless
~~~`,
		docLinks: []HttpLink{installDocs},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your configuration file has errors or could not be read.

## Things you can try:
- Check the syntax of your config file:
~~~
$ cat ~/.config/serverless/config.cue
~~~
- Print the effective configuration:
~~~
$ serverless config show
~~~`,
		docLinks: []HttpLink{installDocs},
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		unsupportedContextIssue.Id(): unsupportedContextIssue,
		remoteRejectedIssue.Id():     remoteRejectedIssue,
		rateLimitedIssue.Id():        rateLimitedIssue,
		artifactNotFoundIssue.Id():   artifactNotFoundIssue,
		transferFailedIssue.Id():     transferFailedIssue,
		installFailedIssue.Id():      installFailedIssue,
		removalFailedIssue.Id():      removalFailedIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
