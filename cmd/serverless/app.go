// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/serverless/standalone/internal/config"
	"github.com/serverless/standalone/internal/selfupdate"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: every Cobra handler receives an App and reads the
	// capability, configuration and output streams through it.
	App struct {
		Config     config.Provider
		Capability selfupdate.Capability
		version    string
		getenv     func(string) string
		stdout     io.Writer
		stderr     io.Writer

		// updaterOptions are applied after the configuration-derived options.
		updaterOptions []selfupdate.Option

		// Global flag values, bound by newRootCommand.
		verbose    bool
		configPath string
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// Capability overrides DetectCapability.
		Capability *selfupdate.Capability
		// Version overrides the ldflags Version compared against release tags.
		Version string
		Getenv  func(string) string
		Stdout     io.Writer
		Stderr     io.Writer
		// UpdaterOptions point the updater at test servers.
		UpdaterOptions []selfupdate.Option
	}

	// session is the per-invocation state of a self-update command.
	session struct {
		cfg     *config.Config
		logger  *log.Logger
		updater *selfupdate.Updater
		verbose bool
	}
)

// NewApp builds an App, detecting the execution capability once.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:         deps.Config,
		version:        deps.Version,
		getenv:         deps.Getenv,
		stdout:         deps.Stdout,
		stderr:         deps.Stderr,
		updaterOptions: deps.UpdaterOptions,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if deps.Capability != nil {
		app.Capability = *deps.Capability
	} else {
		app.Capability = selfupdate.DetectCapability()
	}
	if app.version == "" {
		app.version = Version
	}
	if app.getenv == nil {
		app.getenv = os.Getenv
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func (a *App) loadConfig(ctx context.Context) (*config.Loaded, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
}

// newSession prepares the logger and updater for upgrade or uninstall. When
// the capability gate will reject the command the config file is not read, so
// a broken file cannot mask the gate error.
func (a *App) newSession(ctx context.Context) (*session, error) {
	cfg := config.DefaultConfig()
	if a.Capability.Supported() {
		loaded, err := a.loadConfig(ctx)
		if err != nil {
			return nil, err
		}
		cfg = loaded.Config
	}

	verbose := a.verbose || cfg.UI.Verbose
	logger := a.newLogger(verbose)

	return &session{
		cfg:     cfg,
		logger:  logger,
		updater: a.newUpdater(cfg, logger),
		verbose: verbose,
	}, nil
}

func (a *App) newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "serverless"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func (a *App) newUpdater(cfg *config.Config, logger *log.Logger) *selfupdate.Updater {
	endpoints := selfupdate.DefaultEndpoints()
	endpoints.Mirror = cfg.Network.Mirror

	opts := []selfupdate.Option{
		selfupdate.WithRegion(config.ResolveRegion(cfg.Region, a.getenv)),
		selfupdate.WithEndpoints(endpoints),
		selfupdate.WithToken(cfg.GitHubToken),
		selfupdate.WithTimeouts(cfg.Network.CheckTimeout, cfg.Network.DownloadTimeout),
		selfupdate.WithLogger(logger),
	}
	if cfg.Network.UserAgent != "" {
		opts = append(opts, selfupdate.WithUserAgent(cfg.Network.UserAgent))
	}
	opts = append(opts, a.updaterOptions...)

	return selfupdate.NewUpdater(a.version, a.Capability, cfg.InstallDir, opts...)
}
