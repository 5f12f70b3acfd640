package bootstrap

import (
	"time"

	"fieldprobe/internal/browser"
	"fieldprobe/internal/config"
	"fieldprobe/internal/console"
	"fieldprobe/internal/htmlfile"
	"fieldprobe/internal/ports"
	"fieldprobe/internal/report"
	"fieldprobe/internal/usecase"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Command is the workflow a single run executes.
type Command struct {
	Name string
	Args []string
}

func NewApp(conf *config.Config, command Command) *fx.App {
	return fx.New(options(conf, command))
}

func options(conf *config.Config, command Command) fx.Option {
	return fx.Options(
		fx.Supply(conf, command),

		fx.Provide(
			newLogger,
			newTraceProvider,

			fx.Annotate(report.NewClipboard, fx.As(new(ports.Clipboard))),
			report.NewRenderer,

			usecase.NewUsecase,

			console.NewRunner,
			console.NewInterface,
		),

		sourceModule(conf),

		fx.Invoke(
			// Built eagerly so spans from every component reach the provider.
			func(*sdktrace.TracerProvider) {},
			runCommand,
		),

		fx.NopLogger,
		fx.StartTimeout(10*time.Second),
	)
}

// sourceModule provides the page source: the saved file when one is
// configured, the live browser otherwise.
func sourceModule(conf *config.Config) fx.Option {
	if conf.Offline() {
		return fx.Provide(
			fx.Annotate(htmlfile.NewLoader, fx.As(new(ports.PageSource))),
		)
	}

	return fx.Provide(
		browser.NewManager,
		func(m *browser.Manager) ports.BrowserManager { return m },
		func(m *browser.Manager) ports.PageSource { return m },
	)
}
