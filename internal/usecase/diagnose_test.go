package usecase

import (
	"context"
	"strings"
	"testing"

	"fieldprobe/internal/entity"
	"fieldprobe/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose(t *testing.T) {
	source := &fakeSource{
		kind:      entity.SourceFile,
		snapshots: []*entity.PageSnapshot{testSnapshot(entity.SourceFile, true)},
	}

	diagnosis, err := NewDiagnoser(DiagnoserParams{Source: source, Config: testConfig(), Logger: nopLogger()}).
		Diagnose(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "frame[0]", diagnosis.Document)
	assert.Equal(t, 6, diagnosis.FieldTotal)
	assert.Len(t, diagnosis.Prefixed, 5)
	require.Len(t, diagnosis.Fields, 5)

	tests := []struct {
		role     string
		disabled bool
		blocked  bool
		hint     string
	}{
		{role: RolePeriod, hint: `SelectOption(playwright.SelectOptionValues{Values: playwright.StringSlice("900")})`},
		{role: RoleStartDate, disabled: true, blocked: true, hint: `Fill("01.01.2024")`},
		{role: RoleEndDate, disabled: true, blocked: true, hint: `Fill("31.01.2024")`},
		{role: RoleReason, blocked: true, hint: `Fill("audit")`},
		{role: RoleSubmit, hint: `.Click()`},
	}

	for i, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			state := diagnosis.Fields[i]
			assert.Equal(t, tt.role, state.Role)
			assert.True(t, state.Found)
			assert.Equal(t, tt.disabled, state.Disabled)
			assert.Equal(t, tt.blocked, state.Blocked)
			assert.Equal(t, `frame := page.FrameLocator("iframe.viewer")`, state.Hints[0])
			assert.True(t, strings.HasSuffix(state.Hints[len(state.Hints)-1], tt.hint), state.Hints)

			if tt.blocked {
				assert.Len(t, state.Hints, 3)
				assert.Contains(t, state.Hints[1], "classList.remove")
			} else {
				assert.Len(t, state.Hints, 2)
			}
		})
	}

	period := diagnosis.Fields[0]
	assert.Equal(t, "Arbitrary", period.SelectedText)
	assert.Len(t, period.Options, 2)

	require.Len(t, diagnosis.Notes, 1)
	assert.Contains(t, diagnosis.Notes[0], "3 of 5 fields are blocked")
}

func TestDiagnoseMissingFields(t *testing.T) {
	cfg := testConfig()
	cfg.FieldsConfig.ReasonID = "nope"
	cfg.FieldsConfig.PeriodValue = ""

	source := &fakeSource{
		kind:      entity.SourceFile,
		snapshots: []*entity.PageSnapshot{testSnapshot(entity.SourceFile, true)},
	}

	diagnosis, err := NewDiagnoser(DiagnoserParams{Source: source, Config: cfg, Logger: nopLogger()}).
		Diagnose(context.Background())
	require.NoError(t, err)

	reason := diagnosis.Fields[3]
	assert.False(t, reason.Found)
	assert.Empty(t, reason.Hints)

	assert.Contains(t, diagnosis.Notes, `reason field "nope" not found`)
	assert.Contains(t, diagnosis.Notes, "2 of 4 fields are blocked; selecting a period usually unlocks them")
	assert.Contains(t, diagnosis.Fields[0].Hints[1], `StringSlice("<value>")`)
}

func TestDiagnoseInaccessibleFrame(t *testing.T) {
	source := &fakeSource{
		kind:      entity.SourceLive,
		snapshots: []*entity.PageSnapshot{testSnapshot(entity.SourceLive, false)},
	}

	_, err := NewDiagnoser(DiagnoserParams{Source: source, Config: testConfig(), Logger: nopLogger()}).
		Diagnose(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
	assert.Equal(t, "frame_inaccessible", apperr.ReasonOf(err))
}
