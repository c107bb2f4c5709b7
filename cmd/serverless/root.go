// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/serverless/standalone/internal/issue"
)

var (
	// Version is the release version without the leading "v" (set via -ldflags).
	// It is compared verbatim against the latest release tag.
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree for app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "serverless",
		Short: "Serverless Framework standalone binary",
		Long: TitleStyle.Render("serverless") + SubtitleStyle.Render(" - Serverless Framework standalone binary") + `

The standalone binary bundles the Serverless Framework into a single
executable installed under ~/.serverless/bin. It can replace itself with
the latest release and remove its own installation.

` + SubtitleStyle.Render("Examples:") + `
  serverless upgrade        Install the latest release in place
  serverless uninstall      Remove ~/.serverless/bin
  serverless config show    Show the resolved configuration`,
		SilenceUsage: true,
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/serverless/config.cue)")

	rootCmd.AddCommand(newUpgradeCommand(app))
	rootCmd.AddCommand(newUninstallCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	// SIGINT cancels the command context, aborting an in-flight download.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		if code := exitCodeOf(err); !code.IsSuccess() {
			os.Exit(int(code))
		}
	}
}

// handleError prints errors that the command handlers have not already
// rendered. ExitError values carry output written by the handler itself.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
