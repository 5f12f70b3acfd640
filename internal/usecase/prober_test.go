package usecase

import (
	"context"
	"testing"

	"fieldprobe/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProber(browser *fakeBrowser) *Prober {
	params := ProberParams{Config: testConfig(), Logger: nopLogger()}
	if browser != nil {
		params.Browser = browser
	}

	return NewProber(params)
}

func TestUnlockAfterSelect(t *testing.T) {
	browser := newFakeBrowser(true)

	report, err := newTestProber(browser).Unlock(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1", report.PeriodFrom)
	assert.Equal(t, "900", report.PeriodTo)
	require.Len(t, report.Initial, 4)
	assert.False(t, report.Initial[0].Blocked)
	assert.True(t, report.Initial[1].Blocked)

	assert.True(t, report.Unlocked)
	require.Len(t, report.Attempts, 1)
	assert.Equal(t, map[string]bool{startID: true, endID: true, reasonID: true}, report.Attempts[0].Unlocked)
	assert.Empty(t, report.Forced)
	assert.Empty(t, browser.unlocked)
	assert.Equal(t, []string{periodID + "=900"}, browser.sets)
}

func TestUnlockForced(t *testing.T) {
	browser := newFakeBrowser(false)

	report, err := newTestProber(browser).Unlock(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Unlocked)
	assert.Len(t, report.Attempts, 3)
	assert.Equal(t, []string{startID, endID, reasonID}, browser.unlocked)

	require.Len(t, report.Forced, 3)
	for _, state := range report.Forced {
		assert.False(t, state.Blocked, state.ID)
	}
}

func TestUnlockErrors(t *testing.T) {
	t.Run("offline", func(t *testing.T) {
		_, err := newTestProber(nil).Unlock(context.Background())
		require.Error(t, err)
		assert.Equal(t, apperr.CodeUnsupported, apperr.CodeOf(err))
		assert.Equal(t, "live_source_required", apperr.ReasonOf(err))
	})

	t.Run("not ready", func(t *testing.T) {
		browser := newFakeBrowser(true)
		browser.ready = false

		_, err := newTestProber(browser).Unlock(context.Background())
		assert.Equal(t, apperr.CodeBrowserNotReady, apperr.CodeOf(err))
	})

	t.Run("no period value", func(t *testing.T) {
		prober := newTestProber(newFakeBrowser(true))
		prober.config.FieldsConfig.PeriodValue = ""

		_, err := prober.Unlock(context.Background())
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	})

	t.Run("period missing", func(t *testing.T) {
		browser := newFakeBrowser(true)
		delete(browser.fields, periodID)

		_, err := newTestProber(browser).Unlock(context.Background())
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
		assert.Equal(t, "field_not_found", apperr.ReasonOf(err))
		assert.Empty(t, browser.sets)
	})
}

func TestPeriods(t *testing.T) {
	browser := newFakeBrowser(true)

	report, err := newTestProber(browser).Periods(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Options, 2)
	assert.Equal(t, "1", report.OriginalValue)
	assert.Equal(t, "Today", report.OriginalText)
	assert.Equal(t, "900", report.TestedValue)
	assert.Equal(t, "900", report.AppliedValue)
	assert.Equal(t, "Arbitrary", report.AppliedText)
	assert.Equal(t, "1", report.Restored)

	require.Len(t, report.Dependents, 3)
	assert.False(t, report.Dependents[0].Blocked)

	assert.Equal(t, []string{periodID + "=900", periodID + "=1"}, browser.sets)
}

func TestPeriodsRestoresOnFailure(t *testing.T) {
	browser := newFakeBrowser(true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestProber(browser).Periods(ctx)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, apperr.CodeTimeout, apperr.CodeOf(err))

	assert.Equal(t, []string{periodID + "=900", periodID + "=1"}, browser.sets)
	assert.Equal(t, "1", browser.fields[periodID].Element.Value)
	assert.Equal(t, "Today", browser.fields[periodID].SelectedText)
}

func TestPeriodsListOnly(t *testing.T) {
	browser := newFakeBrowser(true)
	prober := newTestProber(browser)
	prober.config.FieldsConfig.PeriodValue = ""

	report, err := prober.Periods(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Options, 2)
	assert.Empty(t, report.AppliedValue)
	assert.Empty(t, browser.sets)
}

func TestInteract(t *testing.T) {
	browser := newFakeBrowser(true)
	prober := newTestProber(browser)

	result, err := prober.Interact(context.Background(), "#"+submitID, false)
	require.NoError(t, err)
	assert.Equal(t, submitID, result.Element.ID)
	assert.False(t, result.Clicked)
	assert.Empty(t, browser.clicked)

	result, err = prober.Interact(context.Background(), "#"+submitID, true)
	require.NoError(t, err)
	assert.True(t, result.Clicked)
	assert.Equal(t, []string{"#" + submitID}, browser.clicked)

	_, err = prober.Interact(context.Background(), "#missing", true)
	assert.True(t, apperr.IsAbsent(err))
	assert.Len(t, browser.clicked, 1)

	_, err = prober.Interact(context.Background(), " ", false)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}
