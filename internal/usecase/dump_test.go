package usecase

import (
	"context"
	"testing"

	"fieldprobe/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	snapshot := testSnapshot(entity.SourceLive, true)
	source := &fakeSource{kind: entity.SourceLive, snapshots: []*entity.PageSnapshot{snapshot}}

	dump, err := NewDumper(DumperParams{Source: source, Config: testConfig(), Logger: nopLogger()}).
		Dump(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Ledger", dump.Title)
	assert.Equal(t, snapshot.Timestamp, dump.Timestamp)
	assert.Equal(t, snapshot.Frames, dump.Iframes)
	assert.Len(t, dump.Viewer, 1)
	assert.Empty(t, dump.Tables)
	assert.Empty(t, dump.Inputs)
	assert.Equal(t, topPage, dump.HTML)
}
