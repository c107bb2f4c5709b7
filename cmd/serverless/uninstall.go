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

type uninstallParams struct {
	stdout  io.Writer
	updater *selfupdate.Updater
}

// newUninstallCommand creates the `serverless uninstall` command. Like upgrade
// it is hidden, not removed, when the capability gate would reject it.
func newUninstallCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the standalone installation",
		Long: `Remove the standalone installation.

The whole installation directory (~/.serverless/bin by default, see
install_dir) is deleted. Running it again once the directory is gone
succeeds without doing anything.`,
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

			p := uninstallParams{
				stdout:  cmd.OutOrStdout(),
				updater: s.updater,
			}

			if err := runUninstall(cmd.Context(), p); err != nil {
				code := classifyExitCode(err)
				s.logger.Debug("command failed", "error", err, "exit", code, "user_error", code.IsUserError())
				fmt.Fprintln(cmd.ErrOrStderr(), formatUninstallError(err, s.verbose))
				return &ExitError{Code: code, Err: err}
			}

			return nil
		},
	}
}

func runUninstall(ctx context.Context, p uninstallParams) error {
	if err := p.updater.Uninstall(ctx); err != nil {
		return err
	}
	fmt.Fprintln(p.stdout, SuccessStyle.Render("Uninstalled"))
	return nil
}
