package htmlfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fieldprobe/internal/config"
	"fieldprobe/internal/entity"
	"fieldprobe/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const mainPage = `<!DOCTYPE html>
<html><head><title>Reports</title></head>
<body>
  <input id="search" type="text">
  <iframe id="inline" srcdoc="<form><input id='a'><select id='b'></select><button>Go</button></form>"></iframe>
  <iframe id="sibling" class="viewer" src="viewer.html?ReportPath=%2FSales%2FDaily"></iframe>
  <iframe id="remote" src="https://reports.example.com/viewer"></iframe>
  <iframe id="gone" src="missing.html"></iframe>
</body></html>`

const viewerPage = `<html><body>
  <input id="from"><input id="to"><textarea id="why"></textarea>
  <input type="submit" value="View">
</body></html>`

func newTestLoader(t *testing.T) *Loader {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte(mainPage), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "viewer.html"), []byte(viewerPage), 0o600))

	cfg := config.New()
	cfg.ProbeConfig.File = filepath.Join(dir, "page.html")

	return NewLoader(Params{Config: cfg, Logger: zap.NewNop()})
}

func TestLoaderSnapshot(t *testing.T) {
	loader := newTestLoader(t)

	snapshot, err := loader.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.SourceFile, snapshot.Source)
	assert.Equal(t, "Reports", snapshot.Title)
	assert.Contains(t, snapshot.URL, "file://")
	require.Len(t, snapshot.Frames, 4)

	tests := []struct {
		id         string
		accessible bool
		reason     string
	}{
		{id: "inline", accessible: true},
		{id: "sibling", accessible: true},
		{id: "remote", accessible: false, reason: reasonCrossOrigin},
		{id: "gone", accessible: false, reason: reasonMissing},
	}

	for i, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			frame := snapshot.Frames[i]
			assert.Equal(t, i, frame.Index)
			assert.Equal(t, tt.id, frame.ID)
			assert.Equal(t, tt.accessible, frame.Accessible)
			assert.Equal(t, tt.reason, frame.Reason)

			if tt.accessible {
				assert.NotEmpty(t, frame.HTML)
			} else {
				assert.Empty(t, frame.HTML)
			}
		})
	}
}

func TestLoaderCountControls(t *testing.T) {
	loader := newTestLoader(t)
	ctx := context.Background()

	main, err := loader.CountControls(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, entity.ControlCount{Inputs: 1, Buttons: 0}, main)

	viewer, err := loader.CountControls(ctx, "iframe.viewer")
	require.NoError(t, err)
	assert.Equal(t, entity.ControlCount{Inputs: 4, Buttons: 1}, viewer)

	fallback, err := loader.CountControls(ctx, "iframe.absent")
	require.NoError(t, err)
	assert.Equal(t, entity.ControlCount{Inputs: 2, Buttons: 1}, fallback)

	_, err = loader.CountControls(ctx, "#remote")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
	assert.Equal(t, "frame_inaccessible", apperr.ReasonOf(err))
}

func TestLoaderMissingFile(t *testing.T) {
	cfg := config.New()
	cfg.ProbeConfig.File = filepath.Join(t.TempDir(), "nope.html")
	loader := NewLoader(Params{Config: cfg, Logger: zap.NewNop()})

	_, err := loader.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	assert.True(t, apperr.IsAbsent(err))
}
