package usecase

import (
	"context"
	"time"

	"fieldprobe/internal/config"
	"fieldprobe/internal/dom"
	"fieldprobe/internal/entity"
	"fieldprobe/internal/ports"
	"fieldprobe/pkg/apperr"
	"fieldprobe/pkg/logg"
	"fieldprobe/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	analyzerServiceName = "AnalyzerService"
	analyzerTracer      = "usecase.analyzer"
	frameSample         = 5
	selectorSample      = 3
)

// probeSelectors are the attribute selectors tried against the target document
// to spot fields that have no readable label.
var probeSelectors = []string{
	"select",
	`input[type="text"]`,
	`input[type="date"]`,
	"textarea",
	"[aria-label]",
	"[placeholder]",
	"[title]",
	`[id*="Period"]`,
	`[id*="Date"]`,
	`[id*="Reason"]`,
	`[name*="ctl"]`,
}

// idPatterns are substrings searched in id and name attributes next to the keywords.
var idPatterns = []string{"ctl", "txt", "dd", "date", "period", "reason"}

type Analyzer struct {
	source ports.PageSource
	config *config.Config
	logger *zap.Logger
	tracer trace.Tracer
}

type AnalyzerParams struct {
	fx.In

	Source ports.PageSource
	Config *config.Config
	Logger *zap.Logger
}

func NewAnalyzer(params AnalyzerParams) *Analyzer {
	return &Analyzer{
		source: params.Source,
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, analyzerServiceName)),
		tracer: otel.Tracer(analyzerTracer),
	}
}

func (a *Analyzer) Analyze(ctx context.Context) (report *entity.Report, err error) {
	const op = "Analyze"
	runID := uuid.New()
	logger := a.logger.With(zap.String(logg.Operation, op), zap.String(logg.RunID, runID.String()))

	ctx, step := tracing.StartSpan(ctx, a.tracer, logger, op,
		attribute.String("run_id", runID.String()),
		attribute.String("source", string(a.source.Kind())))
	defer func() {
		step.End(err)
	}()

	probe := a.config.ProbeConfig

	poll, err := a.pollControls(ctx)
	if err != nil {
		return nil, err
	}

	step.AddEvent("poll finished")

	snapshot, err := a.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := openDocuments(snapshot, probe.FrameSelector)
	if err != nil {
		return nil, err
	}

	if docs.frameErr != nil {
		logger.Warn("Viewer frame unavailable, analyzing top document", zap.Error(docs.frameErr))
	}

	target := docs.target
	fields := target.MustQuery(dom.ControlSelector)
	buttons := target.MustQuery(dom.ButtonSelector)
	hidden := target.MustQuery(`input[type="hidden"]`)

	report = &entity.Report{
		RunID:        runID,
		Source:       snapshot.Source,
		URL:          snapshot.URL,
		Title:        snapshot.Title,
		Document:     docs.targetName,
		Fields:       dom.DescribeAll(fields, probe.ListLimit),
		FieldTotal:   len(fields),
		Targets:      a.searchTargets(target),
		Buttons:      dom.DescribeAll(buttons, probe.ListLimit),
		ButtonTotal:  len(buttons),
		Structure:    target.Structure(),
		Viewer:       dom.DescribeAll(a.viewerElements(docs.main), probe.ListLimit),
		Selects:      target.Selects(),
		InputTypes:   target.InputTypes(),
		Hidden:       dom.DescribeAll(hidden, probe.ListLimit),
		HiddenTotal:  len(hidden),
		Frames:       frameReports(snapshot.Frames),
		Embeds:       dom.DescribeAll(docs.main.MustQuery("embed, object"), 0),
		SelectorHits: target.ProbeSelectors(probeSelectors, selectorSample),
		Containers:   target.Containers(a.allKeywords(), probe.ListLimit),
		KeywordHits:  target.KeywordContainers(a.allKeywords(), selectorSample),
		Patterns:     a.patterns(target),
		Controls:     target.FormControls().Totals(),
		Poll:         poll,
		GeneratedAt:  time.Now(),
	}

	if docs.frame != nil {
		report.ReportPath = reportPath(docs.frame.Src)
	}

	step.Count("fields", report.FieldTotal)
	logger.Info("Page analyzed",
		zap.String("document", report.Document),
		zap.Int("fields", report.FieldTotal),
		zap.Int("frames", len(report.Frames)))

	if a.source.Kind() == entity.SourceLive {
		report.SecondPass, err = a.secondPass(ctx, report.FieldTotal+report.Controls.Shadow, docs)
		if err != nil {
			return nil, err
		}
	}

	return report, nil
}

// pollControls waits for the viewer to render enough controls. A file never
// changes, so it gets a single attempt.
func (a *Analyzer) pollControls(ctx context.Context) (*entity.PollResult, error) {
	const op = "pollControls"
	logger := a.logger.With(zap.String(logg.Operation, op))
	probe := a.config.ProbeConfig

	attempts := probe.PollAttempts
	if a.source.Kind() == entity.SourceFile {
		attempts = 1
	}

	result := &entity.PollResult{}

	for attempt := 1; attempt <= attempts; attempt++ {
		count, err := a.countTarget(ctx)
		if err != nil {
			if apperr.IsAbsent(err) {
				logger.Warn("Controls not reachable, poll stopped", zap.Error(err))

				return result, nil
			}

			return nil, err
		}

		result.Attempts = append(result.Attempts, count)
		logger.Debug("Poll attempt",
			zap.Int("attempt", attempt),
			zap.Int("inputs", count.Inputs),
			zap.Int("buttons", count.Buttons))

		if loaded(count, probe) {
			result.Loaded = true

			return result, nil
		}

		if attempt < attempts {
			if err := wait(ctx, probe.PollInterval); err != nil {
				return nil, apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
					apperr.MetaReason: "poll_cancelled",
					apperr.MetaStage:  apperr.StagePageState,
				})
			}
		}
	}

	logger.Warn("Dynamic content did not load", zap.Int("attempts", attempts))

	return result, nil
}

// loaded reports whether either count went past its threshold.
func loaded(count entity.ControlCount, probe *config.ProbeConfig) bool {
	return count.Inputs > probe.InputThreshold || count.Buttons > probe.ButtonThreshold
}

// countTarget counts controls in the viewer frame. A page without a countable
// frame is counted in its top document, the same fallback openDocuments applies.
func (a *Analyzer) countTarget(ctx context.Context) (entity.ControlCount, error) {
	count, err := a.source.CountControls(ctx, a.config.ProbeConfig.FrameSelector)
	if err == nil || !apperr.IsAbsent(err) {
		return count, err
	}

	a.logger.Debug("Viewer frame not countable, counting top document",
		zap.Error(err))

	return a.source.CountControls(ctx, "")
}

// secondPass re-reads the page after a fixed delay so late scripts can finish.
func (a *Analyzer) secondPass(ctx context.Context, before int, first *documents) (*entity.SecondPass, error) {
	const op = "secondPass"

	if err := wait(ctx, a.config.ProbeConfig.SecondPassDelay); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
			apperr.MetaReason: "second_pass_cancelled",
			apperr.MetaStage:  apperr.StagePageState,
		})
	}

	snapshot, err := a.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := openDocuments(snapshot, a.config.ProbeConfig.FrameSelector)
	if err != nil {
		return nil, err
	}

	after := len(docs.target.MustQuery(dom.ControlSelector)) + docs.target.FormControls().Totals().Shadow

	// A frame that became readable shows up as a document switch.
	if docs.targetName != first.targetName {
		a.logger.Info("Target document changed on second pass",
			zap.String("before", first.targetName),
			zap.String("after", docs.targetName))
	}

	return &entity.SecondPass{
		Before:      before,
		After:       after,
		NewElements: after > before,
		Frames:      frameReports(snapshot.Frames),
	}, nil
}

func (a *Analyzer) searchTargets(page *dom.Page) []entity.TargetSearch {
	probe := a.config.ProbeConfig
	groups := []struct {
		target   string
		keywords []string
	}{
		{target: "period", keywords: probe.PeriodKeywords},
		{target: "date", keywords: probe.DateKeywords},
		{target: "reason", keywords: probe.ReasonKeywords},
	}

	searches := make([]entity.TargetSearch, 0, len(groups))

	for _, g := range groups {
		search := entity.TargetSearch{Target: g.target, Keywords: g.keywords}

		for _, label := range dom.FindByKeywords(page.Root(), g.keywords) {
			if probe.ListLimit > 0 && len(search.Labels) >= probe.ListLimit {
				break
			}

			search.Labels = append(search.Labels, entity.LabelMatches{
				Label:   dom.Describe(label),
				Matches: dom.DescribeMatches(dom.NearbyControls(label, probe.SearchRadius)),
			})
		}

		searches = append(searches, search)
	}

	return searches
}

func (a *Analyzer) viewerElements(page *dom.Page) []*html.Node {
	nodes, err := page.Query(viewerSelector(a.config.ProbeConfig.ViewerMarker))
	if err != nil {
		a.logger.Warn("Invalid viewer marker", zap.String(logg.Selector, a.config.ProbeConfig.ViewerMarker), zap.Error(err))

		return nil
	}

	return nodes
}

func (a *Analyzer) allKeywords() []string {
	probe := a.config.ProbeConfig
	keywords := make([]string, 0,
		len(probe.PeriodKeywords)+len(probe.DateKeywords)+len(probe.ReasonKeywords)+len(probe.ReportKeywords))

	keywords = append(keywords, probe.PeriodKeywords...)
	keywords = append(keywords, probe.DateKeywords...)
	keywords = append(keywords, probe.ReasonKeywords...)
	keywords = append(keywords, probe.ReportKeywords...)

	return keywords
}

func (a *Analyzer) patterns(page *dom.Page) []entity.PatternHits {
	patterns := append([]string{}, idPatterns...)
	patterns = append(patterns, a.allKeywords()...)

	hits := page.AttributePatterns("id", patterns)

	return append(hits, page.AttributePatterns("name", patterns)...)
}

func frameReports(frames []entity.FrameSnapshot) []entity.FrameReport {
	reports := make([]entity.FrameReport, 0, len(frames))

	for _, frame := range frames {
		report := entity.FrameReport{Frame: frame}

		if frame.Accessible {
			if page, err := dom.NewPage(frame.HTML); err == nil {
				controls := page.MustQuery(dom.ControlSelector)
				report.Controls = len(controls)
				report.Buttons = len(page.MustQuery(dom.SubmitSelector))
				report.First = dom.DescribeAll(controls, frameSample)
			}
		}

		reports = append(reports, report)
	}

	return reports
}
