package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"fieldprobe/internal/config"
	"fieldprobe/internal/entity"
	"fieldprobe/pkg/apperr"

	"go.uber.org/zap"
)

const (
	periodID = "ReportViewerControl_ctl04_ctl03_ddValue"
	startID  = "ReportViewerControl_ctl04_ctl05_txtValue"
	endID    = "ReportViewerControl_ctl04_ctl07_txtValue"
	reasonID = "ReportViewerControl_ctl04_ctl09_txtValue"
	submitID = "ReportViewerControl_ctl04_ctl00"
)

const topPage = `<!DOCTYPE html>
<html><head><title>Ledger</title></head>
<body>
  <div class="ReportViewerHost">
    <iframe class="viewer" src="/ReportServer/Pages/ReportViewer.aspx?ReportPath=%2FFinance%2FLedger&amp;rs:Command=Render"></iframe>
  </div>
  <object data="legacy.swf"></object>
</body></html>`

const viewerDoc = `<html><body>
<div id="ReportViewerControl_ctl04">
  <table id="ParametersGrid">
    <tr>
      <td><label>Период</label></td>
      <td><select id="ReportViewerControl_ctl04_ctl03_ddValue"><option value="1">Today</option><option value="900" selected>Arbitrary</option></select></td>
    </tr>
    <tr>
      <td><label>Дата начала</label></td>
      <td><input id="ReportViewerControl_ctl04_ctl05_txtValue" type="text" disabled class="aspNetDisabled"></td>
      <td><label>Дата окончания</label></td>
      <td><input id="ReportViewerControl_ctl04_ctl07_txtValue" type="text" disabled class="aspNetDisabled"></td>
    </tr>
    <tr>
      <td><label>Причина</label></td>
      <td><textarea id="ReportViewerControl_ctl04_ctl09_txtValue" class="aspNetDisabled"></textarea></td>
    </tr>
  </table>
  <input type="submit" id="ReportViewerControl_ctl04_ctl00" value="View Report">
  <input type="hidden" name="__VIEWSTATE" value="abc">
</div>
</body></html>`

func testConfig() *config.Config {
	cfg := config.New()

	cfg.ProbeConfig.FrameSelector = "iframe.viewer"
	cfg.ProbeConfig.SearchRadius = 3
	cfg.ProbeConfig.PeriodKeywords = []string{"Период", "period"}
	cfg.ProbeConfig.DateKeywords = []string{"Дата", "date"}
	cfg.ProbeConfig.ReasonKeywords = []string{"Причина", "reason"}
	cfg.ProbeConfig.ReportKeywords = []string{"отчет", "report"}
	cfg.ProbeConfig.ViewerMarker = "ReportViewer"
	cfg.ProbeConfig.PollAttempts = 3
	cfg.ProbeConfig.PollInterval = time.Millisecond
	cfg.ProbeConfig.InputThreshold = 2
	cfg.ProbeConfig.ButtonThreshold = 1
	cfg.ProbeConfig.SecondPassDelay = time.Millisecond
	cfg.ProbeConfig.ListLimit = 20

	cfg.FieldsConfig.PeriodID = periodID
	cfg.FieldsConfig.StartDateID = startID
	cfg.FieldsConfig.EndDateID = endID
	cfg.FieldsConfig.ReasonID = reasonID
	cfg.FieldsConfig.SubmitID = submitID
	cfg.FieldsConfig.ControlPrefix = "ReportViewerControl"
	cfg.FieldsConfig.DisabledClass = "aspNetDisabled"
	cfg.FieldsConfig.PeriodValue = "900"
	cfg.FieldsConfig.SampleStart = "01.01.2024"
	cfg.FieldsConfig.SampleEnd = "31.01.2024"
	cfg.FieldsConfig.SampleReason = "audit"
	cfg.FieldsConfig.UnlockAttempts = 3
	cfg.FieldsConfig.UnlockInterval = time.Millisecond

	return cfg
}

func testSnapshot(kind entity.SourceKind, accessible bool) *entity.PageSnapshot {
	frame := entity.FrameSnapshot{
		Index:      0,
		Class:      "viewer",
		Src:        "/ReportServer/Pages/ReportViewer.aspx?ReportPath=%2FFinance%2FLedger&rs:Command=Render",
		Accessible: accessible,
	}

	if accessible {
		frame.HTML = viewerDoc
	} else {
		frame.Reason = "cross_origin"
	}

	return &entity.PageSnapshot{
		Source:    kind,
		URL:       "https://reports.example.com/ledger",
		Title:     "Ledger",
		HTML:      topPage,
		Frames:    []entity.FrameSnapshot{frame},
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

type fakeSource struct {
	kind      entity.SourceKind
	snapshots []*entity.PageSnapshot
	counts    []entity.ControlCount
	countErr  error
	frameErr  error
	selectors []string
	snapCalls int
	polls     int
}

func (f *fakeSource) Kind() entity.SourceKind {
	return f.kind
}

func (f *fakeSource) Snapshot(context.Context) (*entity.PageSnapshot, error) {
	if len(f.snapshots) == 0 {
		return nil, apperr.NotFoundError("Snapshot", errors.New("no page"))
	}

	i := f.snapCalls
	if i >= len(f.snapshots) {
		i = len(f.snapshots) - 1
	}

	f.snapCalls++

	return f.snapshots[i], nil
}

func (f *fakeSource) CountControls(_ context.Context, frameSelector string) (entity.ControlCount, error) {
	f.selectors = append(f.selectors, frameSelector)

	if f.frameErr != nil && frameSelector != "" {
		return entity.ControlCount{}, f.frameErr
	}

	if f.countErr != nil {
		return entity.ControlCount{}, f.countErr
	}

	i := f.polls
	if i >= len(f.counts) {
		i = len(f.counts) - 1
	}

	f.polls++

	return f.counts[i], nil
}

// fakeBrowser keeps field state in memory. Selecting a period unlocks the
// dependent fields when unlockOnSelect is set.
type fakeBrowser struct {
	fakeSource

	ready          bool
	fields         map[string]*entity.FieldState
	unlockOnSelect bool
	sets           []string
	unlocked       []string
	clicked        []string
}

func newFakeBrowser(unlockOnSelect bool) *fakeBrowser {
	blocked := func(id string) *entity.FieldState {
		return &entity.FieldState{
			ID:       id,
			Found:    true,
			Disabled: true,
			Element:  entity.ElementInfo{Tag: "INPUT", ID: id, Type: "text", Class: "aspNetDisabled"},
		}
	}

	return &fakeBrowser{
		fakeSource:     fakeSource{kind: entity.SourceLive},
		ready:          true,
		unlockOnSelect: unlockOnSelect,
		fields: map[string]*entity.FieldState{
			periodID: {
				ID:           periodID,
				Found:        true,
				Element:      entity.ElementInfo{Tag: "SELECT", ID: periodID, Type: "select-one", Value: "1", Enabled: true},
				SelectedText: "Today",
				Options: []entity.Option{
					{Index: 0, Value: "1", Text: "Today", Selected: true},
					{Index: 1, Value: "900", Text: "Arbitrary"},
				},
			},
			startID:  blocked(startID),
			endID:    blocked(endID),
			reasonID: blocked(reasonID),
		},
	}
}

func (f *fakeBrowser) Launch(context.Context) error           { return nil }
func (f *fakeBrowser) Close(context.Context) error            { return nil }
func (f *fakeBrowser) Navigate(context.Context, string) error { return nil }
func (f *fakeBrowser) IsReady() bool                          { return f.ready }

func (f *fakeBrowser) InspectField(_ context.Context, _, id string) (*entity.FieldState, error) {
	field, ok := f.fields[id]
	if !ok {
		return &entity.FieldState{ID: id}, nil
	}

	state := *field

	return &state, nil
}

func (f *fakeBrowser) SetFieldValue(_ context.Context, _, id, value string) error {
	field, ok := f.fields[id]
	if !ok {
		return apperr.NotFoundError("SetFieldValue", errors.New(id))
	}

	f.sets = append(f.sets, id+"="+value)
	field.Element.Value = value

	for i := range field.Options {
		field.Options[i].Selected = field.Options[i].Value == value
		if field.Options[i].Selected {
			field.SelectedText = field.Options[i].Text
		}
	}

	if id == periodID && f.unlockOnSelect {
		for _, dep := range []string{startID, endID, reasonID} {
			f.open(dep)
		}
	}

	return nil
}

func (f *fakeBrowser) UnlockField(_ context.Context, _, id, class string) error {
	if _, ok := f.fields[id]; !ok {
		return apperr.NotFoundError("UnlockField", errors.New(id))
	}

	f.unlocked = append(f.unlocked, id)
	f.open(id)

	return nil
}

func (f *fakeBrowser) open(id string) {
	field := f.fields[id]
	field.Disabled = false
	field.Element.Enabled = true
	field.Element.Class = strings.TrimSpace(strings.ReplaceAll(field.Element.Class, "aspNetDisabled", ""))
}

func (f *fakeBrowser) Describe(_ context.Context, _, selector string) (*entity.ElementInfo, error) {
	if selector != "#"+submitID {
		return nil, apperr.NotFoundError("Describe", errors.New(selector))
	}

	return &entity.ElementInfo{Tag: "INPUT", ID: submitID, Type: "submit", Value: "View Report", Enabled: true}, nil
}

func (f *fakeBrowser) Click(_ context.Context, _, selector string) error {
	f.clicked = append(f.clicked, selector)

	return nil
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
