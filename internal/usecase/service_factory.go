package usecase

import (
	"fieldprobe/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateAnalyzerService() adapters.AnalyzerService {
	return NewAnalyzer(AnalyzerParams{
		Source: f.deps.Source,
		Config: f.deps.Config,
		Logger: f.deps.Logger,
	})
}

func (f *serviceFactory) CreateDiagnoserService() adapters.DiagnoserService {
	return NewDiagnoser(DiagnoserParams{
		Source: f.deps.Source,
		Config: f.deps.Config,
		Logger: f.deps.Logger,
	})
}

func (f *serviceFactory) CreateProberService() adapters.ProberService {
	return NewProber(ProberParams{
		Browser: f.deps.Browser,
		Config:  f.deps.Config,
		Logger:  f.deps.Logger,
	})
}

func (f *serviceFactory) CreateDumperService() adapters.DumperService {
	return NewDumper(DumperParams{
		Source: f.deps.Source,
		Config: f.deps.Config,
		Logger: f.deps.Logger,
	})
}
