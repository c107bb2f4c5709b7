// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/serverless/standalone/internal/issue"
	"github.com/serverless/standalone/internal/selfupdate"
	"github.com/serverless/standalone/pkg/types"
)

const (
	// issueStyle is the glamour style used for the verbose remediation guide.
	issueStyle = "dark"

	releasesURL = "https://github.com/serverless/serverless/releases"
)

// classifyExitCode maps an upgrade or uninstall error to the process exit code.
// An unsupported context, a permission error or a missing artifact use exit
// code 1 (user-correctable); all other failures use exit code 2.
func classifyExitCode(err error) types.ExitCode {
	var rejected *selfupdate.RemoteRejectedError
	switch {
	case errors.Is(err, selfupdate.ErrUnsupportedContext):
		return types.ExitUserError
	case errors.Is(err, os.ErrPermission):
		return types.ExitUserError
	case errors.As(err, &rejected) && rejected.ArtifactMissing():
		return types.ExitUserError
	default:
		return types.ExitFailure
	}
}

// issueIDFor picks the catalog entry explaining err, or 0 when none applies.
func issueIDFor(err error) issue.Id {
	var rejected *selfupdate.RemoteRejectedError
	if errors.As(err, &rejected) {
		switch {
		case rejected.RateLimited():
			return issue.RateLimitedId
		case rejected.ArtifactMissing():
			return issue.ArtifactNotFoundId
		}
		return issue.RemoteRejectedId
	}
	if errors.Is(err, os.ErrPermission) {
		return issue.PermissionDeniedId
	}

	switch selfupdate.KindOf(err) {
	case selfupdate.KindUnsupportedContext:
		return issue.UnsupportedContextId
	case selfupdate.KindTransferFailed:
		return issue.TransferFailedId
	case selfupdate.KindInstallFailed:
		return issue.InstallFailedId
	case selfupdate.KindRemovalFailed:
		return issue.RemovalFailedId
	}
	return 0
}

// formatUpgradeError produces a user-friendly error message with actionable
// remediation guidance tailored to the failure kind.
func formatUpgradeError(err error, verbose bool) string {
	var sb strings.Builder
	sb.WriteString(ErrorStyle.Render("Error: ") + err.Error())
	sb.WriteString("\n\n")

	var rejected *selfupdate.RemoteRejectedError
	isRejected := errors.As(err, &rejected)

	switch {
	case errors.Is(err, selfupdate.ErrUnsupportedContext):
		sb.WriteString("Reinstall with the standalone installer to enable self-upgrade:\n  curl -o- -L https://slss.io/install | bash")
	case isRejected && rejected.RateLimited():
		fmt.Fprintf(&sb, "GitHub API rate limit exceeded (resets at %s).\n\nTo increase your rate limit, set a GitHub token:\n  export GITHUB_TOKEN=ghp_...\nThen retry: serverless upgrade",
			rejected.RateLimitReset.Local().Format("15:04:05"))
	case isRejected && rejected.ArtifactMissing():
		sb.WriteString("No standalone build is published for this platform in the latest release.\nSee " + releasesURL + " for the available artifacts.")
	case errors.Is(err, os.ErrPermission):
		sb.WriteString("insufficient permissions to replace the binary\n\nCheck ownership of the installation directory (install_dir).")
	case errors.Is(err, selfupdate.ErrInstallFailed):
		sb.WriteString("The previous binary, if any, is still in place. Check free disk space and retry.")
	case errors.Is(err, selfupdate.ErrEmptyTag):
		sb.WriteString("The release server returned no tag. Try again later or switch region:\n  SERVERLESS_REGION=default serverless upgrade")
	default:
		sb.WriteString("Check your network connection and try again.\nIf GitHub is unreachable, try the regional mirror:\n  SERVERLESS_REGION=china serverless upgrade")
	}

	appendIssue(&sb, err, verbose)
	return sb.String()
}

// formatUninstallError is the uninstall counterpart of formatUpgradeError.
func formatUninstallError(err error, verbose bool) string {
	var sb strings.Builder
	sb.WriteString(ErrorStyle.Render("Error: ") + err.Error())
	sb.WriteString("\n\n")

	switch {
	case errors.Is(err, selfupdate.ErrUnsupportedContext):
		sb.WriteString("Remove the binary with the tool that installed it.")
	case errors.Is(err, selfupdate.ErrNotDirectory):
		sb.WriteString("install_dir points at a file. Fix the configuration or remove the file manually.")
	case errors.Is(err, os.ErrPermission):
		sb.WriteString("insufficient permissions to remove the installation directory")
	default:
		sb.WriteString("Some files may remain. Remove the installation directory manually.")
	}

	appendIssue(&sb, err, verbose)
	return sb.String()
}

// appendIssue adds the rendered catalog entry for err in verbose mode.
func appendIssue(sb *strings.Builder, err error, verbose bool) {
	if !verbose {
		return
	}
	entry := issue.Get(issueIDFor(err))
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(issueStyle)
	if renderErr != nil {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(rendered)
}
