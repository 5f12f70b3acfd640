package usecase

import (
	"context"
	"fmt"
	"time"

	"fieldprobe/internal/config"
	"fieldprobe/internal/dom"
	"fieldprobe/internal/entity"
	"fieldprobe/internal/ports"
	"fieldprobe/pkg/logg"
	"fieldprobe/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	diagnoserServiceName = "DiagnoserService"
	diagnoserTracer      = "usecase.diagnoser"

	RolePeriod    = "period"
	RoleStartDate = "start_date"
	RoleEndDate   = "end_date"
	RoleReason    = "reason"
	RoleSubmit    = "submit"
)

type fieldRole struct {
	role   string
	id     string
	sample string
}

type Diagnoser struct {
	source ports.PageSource
	config *config.Config
	logger *zap.Logger
	tracer trace.Tracer
}

type DiagnoserParams struct {
	fx.In

	Source ports.PageSource
	Config *config.Config
	Logger *zap.Logger
}

func NewDiagnoser(params DiagnoserParams) *Diagnoser {
	return &Diagnoser{
		source: params.Source,
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, diagnoserServiceName)),
		tracer: otel.Tracer(diagnoserTracer),
	}
}

func (d *Diagnoser) Diagnose(ctx context.Context) (diagnosis *entity.Diagnosis, err error) {
	const op = "Diagnose"
	runID := uuid.New()
	logger := d.logger.With(zap.String(logg.Operation, op), zap.String(logg.RunID, runID.String()))

	ctx, step := tracing.StartSpan(ctx, d.tracer, logger, op, attribute.String("run_id", runID.String()))
	defer func() {
		step.End(err)
	}()

	snapshot, err := d.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := openDocuments(snapshot, d.config.ProbeConfig.FrameSelector)
	if err != nil {
		return nil, err
	}

	if docs.frameErr != nil {
		return nil, docs.frameErr
	}

	fields := d.config.FieldsConfig
	page := docs.target

	diagnosis = &entity.Diagnosis{
		RunID:      runID,
		Document:   docs.targetName,
		FieldTotal: len(page.MustQuery(dom.ControlSelector)),
	}

	blocked := 0

	for _, r := range d.roles() {
		state := d.inspect(page, r)
		if state.Blocked {
			blocked++
		}

		diagnosis.Fields = append(diagnosis.Fields, state)
	}

	if fields.ControlPrefix != "" {
		prefixed, err := page.Query(fmt.Sprintf(`input[id*=%q], select[id*=%q], textarea[id*=%q]`,
			fields.ControlPrefix, fields.ControlPrefix, fields.ControlPrefix))
		if err == nil {
			diagnosis.Prefixed = dom.DescribeAll(prefixed, 0)
		}
	}

	diagnosis.Notes = d.notes(diagnosis.Fields, blocked)
	diagnosis.GeneratedAt = time.Now()

	logger.Info("Fields diagnosed", zap.Int("blocked", blocked), zap.String("document", docs.targetName))

	return diagnosis, nil
}

func (d *Diagnoser) roles() []fieldRole {
	fields := d.config.FieldsConfig

	return []fieldRole{
		{role: RolePeriod, id: fields.PeriodID, sample: fields.PeriodValue},
		{role: RoleStartDate, id: fields.StartDateID, sample: fields.SampleStart},
		{role: RoleEndDate, id: fields.EndDateID, sample: fields.SampleEnd},
		{role: RoleReason, id: fields.ReasonID, sample: fields.SampleReason},
		{role: RoleSubmit, id: fields.SubmitID},
	}
}

func (d *Diagnoser) inspect(page *dom.Page, r fieldRole) entity.FieldState {
	state := entity.FieldState{Role: r.role, ID: r.id}

	node := page.ByID(r.id)
	if node == nil {
		return state
	}

	state.Found = true
	state.Element = dom.Describe(node)
	state.Disabled = !state.Element.Enabled
	state.Blocked = state.Disabled || dom.HasClass(node, d.config.FieldsConfig.DisabledClass)

	if node.DataAtom == atom.Select {
		state.Options = dom.Options(node)
		if opt := dom.SelectedOption(node); opt != nil {
			state.SelectedText = dom.TextContent(opt)
		}
	}

	state.Hints = automationHints(node, r, d.config.ProbeConfig.FrameSelector, state.Blocked, d.config.FieldsConfig.DisabledClass)

	return state
}

// automationHints renders playwright-go calls that drive the field.
func automationHints(node *html.Node, r fieldRole, frameSelector string, blocked bool, disabledClass string) []string {
	selector := "#" + r.id
	hints := []string{"frame := page"}
	if frameSelector != "" {
		hints[0] = fmt.Sprintf("frame := page.FrameLocator(%q)", frameSelector)
	}

	if blocked {
		hints = append(hints, fmt.Sprintf(
			"frame.Locator(%q).Evaluate(`el => { el.disabled = false; el.classList.remove(%q); el.readOnly = false; }`, nil)",
			selector, disabledClass))
	}

	sample := r.sample
	if sample == "" {
		sample = "<value>"
	}

	switch {
	case node.DataAtom == atom.Select:
		hints = append(hints, fmt.Sprintf(
			"frame.Locator(%q).SelectOption(playwright.SelectOptionValues{Values: playwright.StringSlice(%q)})",
			selector, sample))
	case r.role == RoleSubmit || dom.ElementType(node) == "submit" || dom.ElementType(node) == "button":
		hints = append(hints, fmt.Sprintf("frame.Locator(%q).Click()", selector))
	default:
		hints = append(hints, fmt.Sprintf("frame.Locator(%q).Fill(%q)", selector, sample))
	}

	return hints
}

func (d *Diagnoser) notes(states []entity.FieldState, blocked int) []string {
	var notes []string

	missing := 0
	for _, s := range states {
		if !s.Found {
			missing++
			notes = append(notes, fmt.Sprintf("%s field %q not found", s.Role, s.ID))
		}
	}

	if blocked > 0 {
		notes = append(notes, fmt.Sprintf("%d of %d fields are blocked; selecting a period usually unlocks them",
			blocked, len(states)-missing))
	}

	if d.config.FieldsConfig.PeriodValue == "" {
		notes = append(notes, "no period value configured; set FIELD_PERIOD_VALUE for a concrete select hint")
	}

	return notes
}
