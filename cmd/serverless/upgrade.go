// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/serverless/standalone/internal/selfupdate"
	"github.com/serverless/standalone/pkg/types"
)

// upgradeParams bundles the dependencies for the upgrade command, enabling
// the core logic in runUpgrade to be tested without a real Cobra command or
// live release servers.
type upgradeParams struct {
	stdout  io.Writer
	updater *selfupdate.Updater
}

// newUpgradeCommand creates the `serverless upgrade` command. It is hidden
// from help outside a standalone non-Windows install but stays invokable so
// the gate can explain why it is rejected.
func newUpgradeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade the standalone binary to the latest release",
		Long: `Upgrade the standalone binary to the latest release.

The latest release tag is read from the GitHub releases API, or from the
regional mirror when the region resolves to china. If it differs from the
running version, the matching binary is downloaded into a staging file next
to the installed one and renamed over it.`,
		Example: `  # Upgrade in place
  serverless upgrade

  # Force the regional mirror
  SERVERLESS_REGION=china serverless upgrade`,
		Args:   cobra.NoArgs,
		Hidden: !app.Capability.Supported(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			s, err := app.newSession(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), formatErrorForDisplay(err, app.verbose))
				return &ExitError{Code: types.ExitUserError, Err: err}
			}

			p := upgradeParams{
				stdout:  cmd.OutOrStdout(),
				updater: s.updater,
			}

			if err := runUpgrade(cmd.Context(), p); err != nil {
				code := classifyExitCode(err)
				s.logger.Debug("command failed", "error", err, "exit", code, "user_error", code.IsUserError())
				fmt.Fprintln(cmd.ErrOrStderr(), formatUpgradeError(err, s.verbose))
				return &ExitError{Code: code, Err: err}
			}

			return nil
		},
	}
}

// runUpgrade is the core upgrade logic, separated from Cobra for testability.
// Confirmations go to p.stdout; progress is logged by the updater.
func runUpgrade(ctx context.Context, p upgradeParams) error {
	result, err := p.updater.Upgrade(ctx)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case selfupdate.OutcomeAlreadyLatest:
		fmt.Fprintln(p.stdout, "Already at latest version")
	case selfupdate.OutcomeUpgraded:
		fmt.Fprintln(p.stdout, SuccessStyle.Render("Successfully upgraded to "+result.Tag))
	}

	return nil
}
