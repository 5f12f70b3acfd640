package adapters

import (
	"context"

	"fieldprobe/internal/entity"
)

type AnalyzerService interface {
	Analyze(ctx context.Context) (*entity.Report, error)
}

type DiagnoserService interface {
	Diagnose(ctx context.Context) (*entity.Diagnosis, error)
}

type ProberService interface {
	Unlock(ctx context.Context) (*entity.UnlockReport, error)
	Periods(ctx context.Context) (*entity.PeriodReport, error)
	Interact(ctx context.Context, selector string, click bool) (*entity.Interaction, error)
}

type DumperService interface {
	Dump(ctx context.Context) (*entity.PageDump, error)
}
