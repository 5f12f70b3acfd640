package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"fieldprobe/internal/config"
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
)

const (
	proberServiceName = "ProberService"
	proberTracer      = "usecase.prober"
)

// Prober mutates the live page: it picks a period, waits for dependent
// fields to unlock and forces them open when they do not.
type Prober struct {
	browser ports.BrowserManager
	config  *config.Config
	logger  *zap.Logger
	tracer  trace.Tracer
}

type ProberParams struct {
	fx.In

	Browser ports.BrowserManager `optional:"true"`
	Config  *config.Config
	Logger  *zap.Logger
}

func NewProber(params ProberParams) *Prober {
	return &Prober{
		browser: params.Browser,
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, proberServiceName)),
		tracer:  otel.Tracer(proberTracer),
	}
}

func (p *Prober) Unlock(ctx context.Context) (report *entity.UnlockReport, err error) {
	const op = "Unlock"
	runID := uuid.New()
	logger := p.logger.With(zap.String(logg.Operation, op), zap.String(logg.RunID, runID.String()))

	ctx, step := tracing.StartSpan(ctx, p.tracer, logger, op, attribute.String("run_id", runID.String()))
	defer func() {
		step.End(err)
	}()

	if err := p.ready(op); err != nil {
		return nil, err
	}

	fields := p.config.FieldsConfig
	frame := p.config.ProbeConfig.FrameSelector

	if fields.PeriodValue == "" {
		return nil, apperr.InvalidReqError(op, "period_value", errors.New("period value is not configured"))
	}

	report = &entity.UnlockReport{RunID: runID, PeriodTo: fields.PeriodValue}

	for _, r := range p.fieldRoles(true) {
		state, err := p.inspect(ctx, r)
		if err != nil {
			return nil, err
		}

		report.Initial = append(report.Initial, *state)
	}

	period := report.Initial[0]
	if !period.Found {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, errors.New("period field not found"), map[string]any{
			apperr.MetaReason:  "field_not_found",
			apperr.MetaFieldID: period.ID,
		})
	}

	report.PeriodFrom = period.Element.Value

	if err := p.browser.SetFieldValue(ctx, frame, fields.PeriodID, fields.PeriodValue); err != nil {
		return nil, err
	}

	step.AddEvent("period selected")

	dependents := p.fieldRoles(false)

	for attempt := 1; attempt <= fields.UnlockAttempts; attempt++ {
		if err := wait(ctx, fields.UnlockInterval); err != nil {
			return nil, apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
				apperr.MetaReason: "unlock_poll_cancelled",
				apperr.MetaStage:  apperr.StagePageState,
			})
		}

		try := entity.UnlockAttempt{Attempt: attempt, Unlocked: make(map[string]bool, len(dependents))}
		all := true

		for _, r := range dependents {
			state, err := p.inspect(ctx, r)
			if err != nil {
				return nil, err
			}

			open := state.Found && !state.Blocked
			try.Unlocked[r.id] = open
			all = all && open
		}

		report.Attempts = append(report.Attempts, try)
		logger.Debug("Unlock attempt", zap.Int("attempt", attempt), zap.Bool("unlocked", all))

		if all {
			report.Unlocked = true

			break
		}
	}

	if !report.Unlocked {
		logger.Warn("Fields stayed blocked, forcing unlock")

		for _, r := range dependents {
			if err := p.browser.UnlockField(ctx, frame, r.id, fields.DisabledClass); err != nil {
				if apperr.IsAbsent(err) {
					logger.Warn("Field missing, skipped", zap.String(logg.FieldID, r.id))

					continue
				}

				return nil, err
			}
		}

		for _, r := range dependents {
			state, err := p.inspect(ctx, r)
			if err != nil {
				return nil, err
			}

			report.Forced = append(report.Forced, *state)
		}
	}

	report.GeneratedAt = time.Now()

	return report, nil
}

func (p *Prober) Periods(ctx context.Context) (report *entity.PeriodReport, err error) {
	const op = "Periods"
	runID := uuid.New()
	logger := p.logger.With(zap.String(logg.Operation, op), zap.String(logg.RunID, runID.String()))

	ctx, step := tracing.StartSpan(ctx, p.tracer, logger, op, attribute.String("run_id", runID.String()))
	defer func() {
		step.End(err)
	}()

	if err := p.ready(op); err != nil {
		return nil, err
	}

	fields := p.config.FieldsConfig
	frame := p.config.ProbeConfig.FrameSelector
	periodRole := p.fieldRoles(true)[0]

	period, err := p.inspect(ctx, periodRole)
	if err != nil {
		return nil, err
	}

	if !period.Found {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, errors.New("period field not found"), map[string]any{
			apperr.MetaReason:  "field_not_found",
			apperr.MetaFieldID: period.ID,
		})
	}

	report = &entity.PeriodReport{
		RunID:         runID,
		Options:       period.Options,
		OriginalValue: period.Element.Value,
		OriginalText:  period.SelectedText,
		TestedValue:   fields.PeriodValue,
	}

	if fields.PeriodValue == "" {
		logger.Info("No period value configured, listing options only")

		report.GeneratedAt = time.Now()

		return report, nil
	}

	if err := p.browser.SetFieldValue(ctx, frame, fields.PeriodID, fields.PeriodValue); err != nil {
		return nil, err
	}

	// The page gets its original period back on every exit path.
	original := report.OriginalValue
	defer func() {
		restoreErr := p.browser.SetFieldValue(context.WithoutCancel(ctx), frame, fields.PeriodID, original)

		switch {
		case restoreErr == nil && err == nil:
			report.Restored = original
			step.AddEvent("period restored")
		case restoreErr == nil:
		case err == nil:
			report, err = nil, restoreErr
		default:
			logger.Warn("Period value not restored", zap.Error(restoreErr))
		}
	}()

	if err := wait(ctx, fields.UnlockInterval); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeTimeout, err, map[string]any{
			apperr.MetaReason: "period_wait_cancelled",
		})
	}

	applied, err := p.inspect(ctx, periodRole)
	if err != nil {
		return nil, err
	}

	report.AppliedValue = applied.Element.Value
	report.AppliedText = applied.SelectedText

	for _, r := range p.fieldRoles(false) {
		state, err := p.inspect(ctx, r)
		if err != nil {
			return nil, err
		}

		report.Dependents = append(report.Dependents, *state)
	}

	report.GeneratedAt = time.Now()

	return report, nil
}

func (p *Prober) Interact(ctx context.Context, selector string, click bool) (result *entity.Interaction, err error) {
	const op = "Interact"
	logger := p.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	ctx, step := tracing.StartSpan(ctx, p.tracer, logger, op,
		attribute.String("selector", selector),
		attribute.Bool("click", click))
	defer func() {
		step.End(err)
	}()

	if strings.TrimSpace(selector) == "" {
		return nil, apperr.InvalidReqError(op, "selector", errors.New("selector cannot be empty"))
	}

	if err := p.ready(op); err != nil {
		return nil, err
	}

	frame := p.config.ProbeConfig.FrameSelector

	info, err := p.browser.Describe(ctx, frame, selector)
	if err != nil {
		return nil, err
	}

	result = &entity.Interaction{Selector: selector, Frame: frame, Element: *info}

	if click {
		if err := p.browser.Click(ctx, frame, selector); err != nil {
			return nil, err
		}

		result.Clicked = true
		logger.Info("Element clicked")
	}

	return result, nil
}

func (p *Prober) ready(op string) error {
	if p.browser == nil {
		return apperr.Wrap(op, apperr.CodeUnsupported, errors.New("a live page is required"), map[string]any{
			apperr.MetaReason: "live_source_required",
		})
	}

	if !p.browser.IsReady() {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	return nil
}

// fieldRoles lists the period field and, after it, the fields it unlocks.
func (p *Prober) fieldRoles(withPeriod bool) []fieldRole {
	fields := p.config.FieldsConfig
	roles := []fieldRole{
		{role: RoleStartDate, id: fields.StartDateID},
		{role: RoleEndDate, id: fields.EndDateID},
		{role: RoleReason, id: fields.ReasonID},
	}

	if withPeriod {
		roles = append([]fieldRole{{role: RolePeriod, id: fields.PeriodID}}, roles...)
	}

	return roles
}

func (p *Prober) inspect(ctx context.Context, r fieldRole) (*entity.FieldState, error) {
	state, err := p.browser.InspectField(ctx, p.config.ProbeConfig.FrameSelector, r.id)
	if err != nil {
		return nil, err
	}

	state.Role = r.role
	state.Blocked = state.Found && (state.Disabled ||
		(p.config.FieldsConfig.DisabledClass != "" &&
			strings.Contains(state.Element.Class, p.config.FieldsConfig.DisabledClass)))

	return state, nil
}
