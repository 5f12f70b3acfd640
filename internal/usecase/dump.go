package usecase

import (
	"context"

	"fieldprobe/internal/config"
	"fieldprobe/internal/dom"
	"fieldprobe/internal/entity"
	"fieldprobe/internal/ports"
	"fieldprobe/pkg/logg"
	"fieldprobe/pkg/tracing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	dumperServiceName = "DumperService"
	dumperTracer      = "usecase.dumper"
)

type Dumper struct {
	source ports.PageSource
	config *config.Config
	logger *zap.Logger
	tracer trace.Tracer
}

type DumperParams struct {
	fx.In

	Source ports.PageSource
	Config *config.Config
	Logger *zap.Logger
}

func NewDumper(params DumperParams) *Dumper {
	return &Dumper{
		source: params.Source,
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, dumperServiceName)),
		tracer: otel.Tracer(dumperTracer),
	}
}

// Dump captures the top page as a self-contained structure.
func (d *Dumper) Dump(ctx context.Context) (dump *entity.PageDump, err error) {
	const op = "Dump"
	logger := d.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, d.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	snapshot, err := d.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := openDocuments(snapshot, "")
	if err != nil {
		return nil, err
	}

	page := docs.main

	viewer, err := page.Query(viewerSelector(d.config.ProbeConfig.ViewerMarker))
	if err != nil {
		logger.Warn("Invalid viewer marker", zap.Error(err))
	}

	dump = &entity.PageDump{
		URL:       snapshot.URL,
		Title:     snapshot.Title,
		Timestamp: snapshot.Timestamp,
		Iframes:   snapshot.Frames,
		Viewer:    dom.DescribeAll(viewer, 0),
		Tables:    page.Tables(),
		Buttons:   dom.DescribeAll(page.MustQuery(dom.ButtonSelector), 0),
		Inputs:    dom.DescribeAll(page.MustQuery(dom.ControlSelector), 0),
		HTML:      snapshot.HTML,
	}

	step.Count("bytes", len(dump.HTML))
	logger.Info("Page dumped", zap.Int("frames", len(dump.Iframes)), zap.Int("inputs", len(dump.Inputs)))

	return dump, nil
}
