package usecase

import (
	"fieldprobe/internal/config"
	"fieldprobe/internal/ports"
	"fieldprobe/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Analyzer  adapters.AnalyzerService
	Diagnoser adapters.DiagnoserService
	Prober    adapters.ProberService
	Dumper    adapters.DumperService
}

type Params struct {
	fx.In

	Logger *zap.Logger
	Config *config.Config
	Source ports.PageSource
	// Browser is only provided for a live source.
	Browser ports.BrowserManager `optional:"true"`
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Analyzer:  factory.CreateAnalyzerService(),
		Diagnoser: factory.CreateDiagnoserService(),
		Prober:    factory.CreateProberService(),
		Dumper:    factory.CreateDumperService(),
	}
}
