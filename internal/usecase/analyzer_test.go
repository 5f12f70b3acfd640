package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fieldprobe/internal/entity"
	"fieldprobe/internal/htmlfile"
	"fieldprobe/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(source *fakeSource) *Analyzer {
	return NewAnalyzer(AnalyzerParams{Source: source, Config: testConfig(), Logger: nopLogger()})
}

func TestAnalyzeLive(t *testing.T) {
	source := &fakeSource{
		kind:      entity.SourceLive,
		snapshots: []*entity.PageSnapshot{testSnapshot(entity.SourceLive, true)},
		counts:    []entity.ControlCount{{Inputs: 1}, {Inputs: 6, Buttons: 1}},
	}

	report, err := newTestAnalyzer(source).Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.SourceLive, report.Source)
	assert.Equal(t, "frame[0]", report.Document)
	assert.Equal(t, "/Finance/Ledger", report.ReportPath)
	assert.Equal(t, 6, report.FieldTotal)
	assert.Equal(t, 1, report.ButtonTotal)
	assert.Equal(t, 1, report.HiddenTotal)
	assert.Equal(t, 1, report.Structure.Tables)
	assert.Len(t, report.Selects, 1)
	assert.Equal(t, 2, report.InputTypes["text"])
	assert.Len(t, report.Embeds, 1)
	assert.Len(t, report.Viewer, 1)
	assert.Equal(t, 6, report.Controls.Main)

	require.NotNil(t, report.Poll)
	assert.True(t, report.Poll.Loaded)
	assert.Len(t, report.Poll.Attempts, 2)

	require.NotNil(t, report.SecondPass)
	assert.Equal(t, report.SecondPass.Before, report.SecondPass.After)
	assert.False(t, report.SecondPass.NewElements)
	assert.Equal(t, 2, source.snapCalls)

	require.Len(t, report.Targets, 3)

	period := report.Targets[0]
	assert.Equal(t, "period", period.Target)
	require.Len(t, period.Labels, 1)
	require.NotEmpty(t, period.Labels[0].Matches)

	first := period.Labels[0].Matches[0]
	assert.Equal(t, periodID, first.Control.ID)
	assert.Equal(t, entity.DirectionAncestor, first.Direction)
	assert.Equal(t, 2, first.Distance)

	assert.Len(t, report.Targets[1].Labels, 2)
	assert.Len(t, report.Targets[2].Labels, 1)

	require.Len(t, report.Frames, 1)
	assert.Equal(t, 6, report.Frames[0].Controls)
	assert.Len(t, report.Frames[0].First, 5)
}

func TestAnalyzeSecondPassSeesNewControls(t *testing.T) {
	late := testSnapshot(entity.SourceLive, true)
	early := testSnapshot(entity.SourceLive, false)

	source := &fakeSource{
		kind:      entity.SourceLive,
		snapshots: []*entity.PageSnapshot{early, late},
		counts:    []entity.ControlCount{{Inputs: 6, Buttons: 1}},
	}

	report, err := newTestAnalyzer(source).Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, mainDocument, report.Document)
	assert.Equal(t, 0, report.FieldTotal)
	require.NotNil(t, report.SecondPass)
	assert.Equal(t, 6, report.SecondPass.After)
	assert.True(t, report.SecondPass.NewElements)
	assert.True(t, report.SecondPass.Frames[0].Frame.Accessible)
}

func TestAnalyzePollGivesUp(t *testing.T) {
	source := &fakeSource{
		kind:      entity.SourceLive,
		snapshots: []*entity.PageSnapshot{testSnapshot(entity.SourceLive, true)},
		counts:    []entity.ControlCount{{Inputs: 1}},
	}

	report, err := newTestAnalyzer(source).Analyze(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Poll.Loaded)
	assert.Len(t, report.Poll.Attempts, 3)
}

func TestAnalyzeFile(t *testing.T) {
	source := &fakeSource{
		kind:      entity.SourceFile,
		snapshots: []*entity.PageSnapshot{testSnapshot(entity.SourceFile, true)},
		counts:    []entity.ControlCount{{Inputs: 1}},
	}

	report, err := newTestAnalyzer(source).Analyze(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Poll.Attempts, 1)
	assert.Nil(t, report.SecondPass)
	assert.Equal(t, 1, source.snapCalls)
}

func TestLoadedThresholds(t *testing.T) {
	probe := testConfig().ProbeConfig

	tests := []struct {
		name   string
		count  entity.ControlCount
		loaded bool
	}{
		{name: "inputs past threshold", count: entity.ControlCount{Inputs: 3}, loaded: true},
		{name: "both at threshold", count: entity.ControlCount{Inputs: 2, Buttons: 1}, loaded: false},
		{name: "buttons past threshold", count: entity.ControlCount{Buttons: 2}, loaded: true},
		{name: "empty", count: entity.ControlCount{}, loaded: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{kind: entity.SourceFile, counts: []entity.ControlCount{tt.count}}

			poll, err := newTestAnalyzer(source).pollControls(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.loaded, loaded(tt.count, probe))
			assert.Equal(t, tt.loaded, poll.Loaded)
			assert.Len(t, poll.Attempts, 1)
		})
	}
}

func TestAnalyzePollCountsTopDocumentWithoutFrame(t *testing.T) {
	snapshot := testSnapshot(entity.SourceLive, true)
	snapshot.HTML = `<html><body><form>
  <label>Период</label><select id="p"><option>1</option></select>
  <input type="text"><input type="text"><textarea></textarea>
  <button>Go</button><input type="submit">
</form></body></html>`
	snapshot.Frames = nil

	source := &fakeSource{
		kind:      entity.SourceLive,
		snapshots: []*entity.PageSnapshot{snapshot},
		counts:    []entity.ControlCount{{Inputs: 5, Buttons: 2}},
		frameErr:  apperr.WrapErrorWithReason("resolveFrame", apperr.CodeNotFound, "frame_not_found"),
	}

	report, err := newTestAnalyzer(source).Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, mainDocument, report.Document)
	assert.True(t, report.Poll.Loaded)
	require.Len(t, report.Poll.Attempts, 1)
	assert.Equal(t, 5, report.Poll.Attempts[0].Inputs)
	assert.Equal(t, []string{"iframe.viewer", ""}, source.selectors[:2])
}

func TestAnalyzeFileWithoutFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><body><form>
  <label>Период</label><select id="p"><option>1</option></select>
  <input type="text"><input type="text">
  <button>Go</button><input type="submit">
</form></body></html>`), 0o600))

	cfg := testConfig()
	cfg.ProbeConfig.File = path

	analyzer := NewAnalyzer(AnalyzerParams{
		Source: htmlfile.NewLoader(htmlfile.Params{Config: cfg, Logger: nopLogger()}),
		Config: cfg,
		Logger: nopLogger(),
	})

	report, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.FieldTotal)
	assert.True(t, report.Poll.Loaded)
	assert.Equal(t, []entity.ControlCount{{Inputs: 4, Buttons: 2}}, report.Poll.Attempts)
}

func TestAnalyzeFrameInaccessibleCountsTopDocument(t *testing.T) {
	source := &fakeSource{
		kind:      entity.SourceLive,
		snapshots: []*entity.PageSnapshot{testSnapshot(entity.SourceLive, false)},
		counts:    []entity.ControlCount{{}},
		frameErr:  apperr.WrapErrorWithReason("resolveFrame", apperr.CodeUnavailable, "frame_inaccessible"),
	}

	report, err := newTestAnalyzer(source).Analyze(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Poll.Loaded)
	assert.Len(t, report.Poll.Attempts, 3)
	assert.Equal(t, mainDocument, report.Document)
}

func TestAnalyzeFrameMissing(t *testing.T) {
	source := &fakeSource{
		kind:      entity.SourceLive,
		snapshots: []*entity.PageSnapshot{testSnapshot(entity.SourceLive, false)},
		countErr:  apperr.WrapErrorWithReason("CountControls", apperr.CodeNotFound, "frame_not_found"),
	}

	report, err := newTestAnalyzer(source).Analyze(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Poll.Attempts)
	assert.False(t, report.Poll.Loaded)
	assert.Equal(t, mainDocument, report.Document)
	assert.False(t, report.Frames[0].Frame.Accessible)
}

func TestAnalyzeSnapshotError(t *testing.T) {
	source := &fakeSource{kind: entity.SourceFile, counts: []entity.ControlCount{{}}}

	_, err := newTestAnalyzer(source).Analyze(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsAbsent(err))
}
