// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/serverless/standalone/internal/config"
	"github.com/serverless/standalone/internal/selfupdate"
)

// newConfigCommand creates the `serverless config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect serverless standalone configuration",
		Long: `Inspect serverless standalone configuration.

Configuration is stored in:
  - Linux: ~/.config/serverless/config.cue
  - macOS: ~/Library/Application Support/serverless/config.cue
  - Windows: %APPDATA%\serverless\config.cue

Every key can be overridden with a SERVERLESS_ environment variable,
e.g. SERVERLESS_REGION=china or SERVERLESS_NETWORK_CHECK_TIMEOUT=5s.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, cmd.OutOrStdout())
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, cmd.OutOrStdout())
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, w io.Writer) error {
	loaded, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	keyStyle := CmdStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if loaded.Path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), loaded.Path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	region := config.ResolveRegion(cfg.Region, app.getenv)
	fmt.Fprintf(w, "%s: %s (%s)\n", keyStyle.Render("Effective region"), region, cfg.Region)
	fmt.Fprintf(w, "%s: %s on %s\n", keyStyle.Render("Execution context"), app.Capability.Context, app.Capability.GOOS)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Artifact"), selfupdate.HostPlatform().ArtifactName())
	fmt.Fprintln(w)

	fmt.Fprint(w, config.GenerateCUE(cfg))
	return nil
}

func showConfigPath(app *App, w io.Writer) error {
	path, err := config.FilePath(config.LoadOptions{ConfigFilePath: app.configPath})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, path)
	return nil
}
