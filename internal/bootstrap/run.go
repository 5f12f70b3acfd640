package bootstrap

import (
	"context"

	"fieldprobe/internal/config"
	"fieldprobe/internal/console"
	"fieldprobe/internal/ports"
	"fieldprobe/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type runParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config.Config
	Command    Command
	Runner     *console.Runner
	Shell      *console.Interface
	Browser    ports.BrowserManager `optional:"true"`
	Logger     *zap.Logger
}

func runCommand(params runParams) {
	logger := params.Logger.With(zap.String(logg.Layer, "App"), zap.String(logg.Action, params.Command.Name))
	ctx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				code := 0

				if err := execute(ctx, params, logger); err != nil {
					logger.Error("Command failed", zap.Error(err))

					code = 1
				}

				if err := params.Shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error("Shutdown failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()

			if err := params.Shell.Stop(); err != nil {
				logger.Error("Failed to stop console", zap.Error(err))
			}

			if params.Browser != nil && params.Browser.IsReady() {
				if err := params.Browser.Close(ctx); err != nil {
					logger.Error("Failed to close browser", zap.Error(err))
				}
			}

			return nil
		},
	})
}

func execute(ctx context.Context, params runParams, logger *zap.Logger) error {
	if params.Browser != nil {
		if err := params.Browser.Launch(ctx); err != nil {
			return err
		}

		url := params.Config.ProbeConfig.TargetURL
		if url == "" {
			logger.Warn("No target URL, working on a blank page")
		} else if err := params.Browser.Navigate(ctx, url); err != nil {
			return err
		}
	}

	if params.Command.Name == console.CmdShell {
		return params.Shell.Start()
	}

	return params.Runner.Run(ctx, params.Command.Name, params.Command.Args)
}
