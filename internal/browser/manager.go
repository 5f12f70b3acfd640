package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"fieldprobe/internal/config"
	"fieldprobe/internal/entity"
	"fieldprobe/pkg/apperr"
	"fieldprobe/pkg/logg"
	"fieldprobe/pkg/tracing"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	browserManagerName = "BrowserManager"
	browserTracer      = "browser.manager"
	fallbackFrame      = "iframe"
	settleDelay        = 500 * time.Millisecond
)

// Manager drives one Chromium page through playwright.
type Manager struct {
	config         *config.Config
	logger         *zap.Logger
	tracer         trace.Tracer
	playwright     *playwright.Playwright
	browser        playwright.Browser
	browserContext playwright.BrowserContext
	page           playwright.Page
	ready          bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, browserManagerName)),
		tracer: otel.Tracer(browserTracer),
		ready:  false,
	}
}

func (m *Manager) Kind() entity.SourceKind {
	return entity.SourceLive
}

func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching browser...")

	if m.config.BrowserConfig.Install {
		step.AddEvent("installing playwright")

		err = playwright.Install(&playwright.RunOptions{
			Browsers: []string{"chromium"},
			Verbose:  m.config.AppConfig.Debug,
		})
		if err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_install_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.playwright = pw

	if m.config.BrowserConfig.UserDataDir != "" {
		return m.launchPersistent(ctx)
	}

	return m.launchNew(ctx)
}

func (m *Manager) launchPersistent(ctx context.Context) (err error) {
	const op = "launchPersistent"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	userDataDir := m.config.BrowserConfig.UserDataDir

	if err := os.MkdirAll(userDataDir, 0o755); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageBrowser,
			apperr.MetaPath:   userDataDir,
		})
	}

	browserContext, err := m.playwright.Chromium.LaunchPersistentContext(userDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(m.config.BrowserConfig.Headless),
		SlowMo:            playwright.Float(float64(m.config.BrowserConfig.SlowMo)),
		Viewport:          &playwright.Size{Width: 1920, Height: 1080},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "launch_persistent_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}

	m.browserContext = browserContext

	if pages := browserContext.Pages(); len(pages) > 0 {
		m.page = pages[0]
		logger.Debug("Using existing page")
	} else {
		page, err := browserContext.NewPage()
		if err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "new_page_failed",
				apperr.MetaStage:  apperr.StageBrowser,
			})
		}
		m.page = page
	}

	m.ready = true
	logger.Info("Browser launched")

	return nil
}

func (m *Manager) launchNew(ctx context.Context) (err error) {
	const op = "launchNew"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.config.BrowserConfig.Headless),
		SlowMo:   playwright.Float(float64(m.config.BrowserConfig.SlowMo)),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.browser = browser

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: 1280, Height: 720},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.browserContext = browserContext

	page, err := browserContext.NewPage()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageBrowser,
		})
	}
	m.page = page

	m.ready = true
	logger.Info("Browser launched")

	return nil
}

func (m *Manager) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if m.browserContext != nil {
		if err := m.browserContext.Close(); err != nil {
			logger.Warn("Failed to close context", zap.Error(err))
		}
	}

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
		}
	}

	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_stop_failed",
			})
		}
	}

	m.ready = false
	logger.Info("Browser closed")

	return nil
}

func (m *Manager) IsReady() bool {
	return m.ready
}

func (m *Manager) ensurePageActive() error {
	if m.browserContext == nil {
		return errors.New("browser context is nil")
	}

	if m.page != nil && !m.page.IsClosed() {
		return nil
	}

	for _, p := range m.browserContext.Pages() {
		if !p.IsClosed() {
			m.page = p
			m.logger.Info("Reconnected to existing page")

			return nil
		}
	}

	page, err := m.browserContext.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create new page: %w", err)
	}

	m.page = page

	return nil
}

func (m *Manager) checkReady(op string) error {
	if !m.ready {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if err := m.ensurePageActive(); err != nil {
		return apperr.Wrap(op, apperr.CodeBrowserNotReady, err, map[string]any{
			apperr.MetaReason: "page_not_active",
		})
	}

	return nil
}

func (m *Manager) Navigate(ctx context.Context, url string) (err error) {
	const op = "Navigate"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.URL, url))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("url", url))
	defer func() {
		step.End(err)
	}()

	if err := m.checkReady(op); err != nil {
		return err
	}

	step.AddEvent("navigating to URL")

	_, err = m.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(m.config.BrowserConfig.Timeout)),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason: "goto_failed",
			apperr.MetaStage:  apperr.StageNavigation,
			apperr.MetaURL:    url,
		})
	}

	time.Sleep(settleDelay)
	step.AddEvent("navigation completed")

	return nil
}

func (m *Manager) Snapshot(ctx context.Context) (snapshot *entity.PageSnapshot, err error) {
	const op = "Snapshot"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err := m.checkReady(op); err != nil {
		return nil, err
	}

	_ = m.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(5000),
	})

	result, err := m.page.Evaluate(snapshotScript)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
			apperr.MetaStage:  apperr.StageSnapshot,
		})
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeInternal, "unexpected_result_type")
	}

	snapshot = &entity.PageSnapshot{
		Source:    entity.SourceLive,
		URL:       getString(resultMap, "url"),
		Title:     getString(resultMap, "title"),
		HTML:      getString(resultMap, "html"),
		Timestamp: time.Now(),
	}

	frames, _ := resultMap["frames"].([]interface{})
	handles, err := m.page.QuerySelectorAll("iframe")
	if err != nil {
		logger.Warn("Failed to list iframe handles", zap.Error(err))
	}

	for _, item := range frames {
		frameMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		frame := entity.FrameSnapshot{
			Index:      int(getFloat(frameMap, "index")),
			ID:         getString(frameMap, "id"),
			Name:       getString(frameMap, "name"),
			Class:      getString(frameMap, "className"),
			Src:        getString(frameMap, "src"),
			Accessible: getBool(frameMap, "accessible"),
			Reason:     getString(frameMap, "reason"),
		}

		if frame.Accessible {
			frame.HTML, err = m.frameHTML(handles, frame.Index)
			if err != nil {
				logger.Warn("Frame content unavailable", zap.Int(logg.Frame, frame.Index), zap.Error(err))
				frame.Accessible = false
				frame.Reason = apperr.ReasonOf(err)
			}
		}

		snapshot.Frames = append(snapshot.Frames, frame)
	}

	step.Count("frames", len(snapshot.Frames))

	return snapshot, nil
}

func (m *Manager) frameHTML(handles []playwright.ElementHandle, index int) (string, error) {
	const op = "frameHTML"

	if index < 0 || index >= len(handles) {
		return "", apperr.WrapErrorWithReason(op, apperr.CodeNotFound, "frame_handle_missing")
	}

	frame, err := handles[index].ContentFrame()
	if err != nil || frame == nil {
		return "", apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
			apperr.MetaReason: "frame_not_attached",
			apperr.MetaStage:  apperr.StageFrame,
		})
	}

	result, err := frame.Evaluate(snapshotScript)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
			apperr.MetaReason: "frame_evaluate_failed",
			apperr.MetaStage:  apperr.StageFrame,
		})
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return "", apperr.WrapErrorWithReason(op, apperr.CodeInternal, "unexpected_result_type")
	}

	return getString(resultMap, "html"), nil
}

// resolveFrame picks the frame to operate on: the top document for an empty
// selector, else the matching iframe, falling back to the first iframe.
func (m *Manager) resolveFrame(frameSelector string) (playwright.Frame, error) {
	const op = "resolveFrame"

	if frameSelector == "" {
		return m.page.MainFrame(), nil
	}

	handle, err := m.page.QuerySelector(frameSelector)
	if err != nil || handle == nil {
		handle, err = m.page.QuerySelector(fallbackFrame)
	}

	if err != nil || handle == nil {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, errors.New("iframe not found"), map[string]any{
			apperr.MetaReason:   "frame_not_found",
			apperr.MetaStage:    apperr.StageFrame,
			apperr.MetaSelector: frameSelector,
		})
	}

	frame, err := handle.ContentFrame()
	if err != nil || frame == nil {
		return nil, apperr.Wrap(op, apperr.CodeUnavailable, errors.New("iframe content is not accessible"), map[string]any{
			apperr.MetaReason:   "frame_inaccessible",
			apperr.MetaStage:    apperr.StageFrame,
			apperr.MetaSelector: frameSelector,
		})
	}

	return frame, nil
}

func (m *Manager) CountControls(ctx context.Context, frameSelector string) (count entity.ControlCount, err error) {
	const op = "CountControls"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Frame, frameSelector))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	if err := m.checkReady(op); err != nil {
		return count, err
	}

	frame, err := m.resolveFrame(frameSelector)
	if err != nil {
		return count, err
	}

	result, err := frame.Evaluate(countControlsScript)
	if err != nil {
		return count, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	resultMap, _ := result.(map[string]interface{})

	return entity.ControlCount{
		Inputs:  int(getFloat(resultMap, "inputs")),
		Buttons: int(getFloat(resultMap, "buttons")),
	}, nil
}

// InspectField reads the live state of the element with the given id. A
// missing element is reported as Found=false, not as an error.
func (m *Manager) InspectField(ctx context.Context, frameSelector, id string) (state *entity.FieldState, err error) {
	const op = "InspectField"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.FieldID, id))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("field_id", id))
	defer func() {
		step.End(err)
	}()

	if err := m.checkReady(op); err != nil {
		return nil, err
	}

	frame, err := m.resolveFrame(frameSelector)
	if err != nil {
		return nil, err
	}

	result, err := frame.Evaluate(inspectFieldScript, id)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:  "evaluate_failed",
			apperr.MetaFieldID: id,
		})
	}

	state = &entity.FieldState{ID: id}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return state, nil
	}

	state.Found = true
	state.Element = elementFromMap(resultMap)
	state.Disabled = getBool(resultMap, "disabled")
	state.SelectedText = getString(resultMap, "selectedText")

	if opts, ok := resultMap["options"].([]interface{}); ok {
		for _, item := range opts {
			optMap, ok := item.(map[string]interface{})
			if !ok {
				continue
			}

			state.Options = append(state.Options, entity.Option{
				Index:    int(getFloat(optMap, "index")),
				Value:    getString(optMap, "value"),
				Text:     getString(optMap, "text"),
				Selected: getBool(optMap, "selected"),
			})
		}
	}

	return state, nil
}

func (m *Manager) SetFieldValue(ctx context.Context, frameSelector, id, value string) (err error) {
	const op = "SetFieldValue"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.FieldID, id))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("field_id", id))
	defer func() {
		step.End(err)
	}()

	if err := m.checkReady(op); err != nil {
		return err
	}

	frame, err := m.resolveFrame(frameSelector)
	if err != nil {
		return err
	}

	return m.applyToField(op, frame, setValueScript, id, []interface{}{id, value})
}

func (m *Manager) UnlockField(ctx context.Context, frameSelector, id, disabledClass string) (err error) {
	const op = "UnlockField"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.FieldID, id))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("field_id", id))
	defer func() {
		step.End(err)
	}()

	if err := m.checkReady(op); err != nil {
		return err
	}

	frame, err := m.resolveFrame(frameSelector)
	if err != nil {
		return err
	}

	return m.applyToField(op, frame, unlockScript, id, []interface{}{id, disabledClass})
}

func (m *Manager) applyToField(op string, frame playwright.Frame, script, id string, args []interface{}) error {
	result, err := frame.Evaluate(script, args)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason:  "evaluate_failed",
			apperr.MetaStage:   apperr.StageInteraction,
			apperr.MetaFieldID: id,
		})
	}

	if ok, _ := result.(bool); !ok {
		return apperr.Wrap(op, apperr.CodeNotFound, fmt.Errorf("element not found: %s", id), map[string]any{
			apperr.MetaReason:  "field_not_found",
			apperr.MetaFieldID: id,
		})
	}

	return nil
}

func (m *Manager) Describe(ctx context.Context, frameSelector, selector string) (info *entity.ElementInfo, err error) {
	const op = "Describe"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.checkReady(op); err != nil {
		return nil, err
	}

	frame, err := m.resolveFrame(frameSelector)
	if err != nil {
		return nil, err
	}

	result, err := frame.Evaluate(describeSelectorScript, selector)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, err, map[string]any{
			apperr.MetaReason:   "evaluate_failed",
			apperr.MetaSelector: selector,
		})
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, fmt.Errorf("element not found: %s", selector), map[string]any{
			apperr.MetaReason:   "element_not_found",
			apperr.MetaSelector: selector,
		})
	}

	described := elementFromMap(resultMap)

	return &described, nil
}

func (m *Manager) Click(ctx context.Context, frameSelector, selector string) (err error) {
	const op = "Click"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Selector, selector))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("selector", selector))
	defer func() {
		step.End(err)
	}()

	if err := m.checkReady(op); err != nil {
		return err
	}

	frame, err := m.resolveFrame(frameSelector)
	if err != nil {
		return err
	}

	err = frame.Click(selector, playwright.FrameClickOptions{
		Timeout: playwright.Float(float64(m.config.BrowserConfig.Timeout)),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaReason:   "click_failed",
			apperr.MetaStage:    apperr.StageInteraction,
			apperr.MetaSelector: selector,
		})
	}

	return nil
}

func elementFromMap(m map[string]interface{}) entity.ElementInfo {
	return entity.ElementInfo{
		Tag:         strings.ToUpper(getString(m, "tag")),
		ID:          getString(m, "id"),
		Name:        getString(m, "name"),
		Type:        getString(m, "type"),
		Class:       getString(m, "className"),
		Value:       getString(m, "value"),
		Placeholder: getString(m, "placeholder"),
		Title:       getString(m, "title"),
		Text:        getString(m, "text"),
		Src:         getString(m, "src"),
		Href:        getString(m, "href"),
		MaxLength:   int(getFloat(m, "maxLength")),
		Visible:     getBool(m, "visible"),
		Enabled:     !getBool(m, "disabled"),
		ReadOnly:    getBool(m, "readOnly"),
	}
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}

	return ""
}

func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}

	return false
}

func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}

	return 0
}
