package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	err := Wrap("Snapshot", CodeInternal, base, nil)

	require.Error(t, err)
	assert.Equal(t, "Snapshot: boom", err.Error())
	assert.ErrorIs(t, err, base)

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	assert.NotNil(t, appErr.Metadata)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "plain error", err: errors.New("x"), want: CodeInternal},
		{name: "not found", err: NotFoundError("op", errors.New("x")), want: CodeNotFound},
		{name: "wrapped twice", err: fmt.Errorf("outer: %w", WrapErrorWithReason("op", CodeUnavailable, "frame_blocked")), want: CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestReasonAndAbsent(t *testing.T) {
	err := WrapErrorWithReason("FieldState", CodeNotFound, "field_missing")

	assert.Equal(t, "field_missing", ReasonOf(err))
	assert.True(t, IsAbsent(err))
	assert.False(t, IsAbsent(InvalidReqError("op", "radius", errors.New("bad"))))
	assert.Empty(t, ReasonOf(errors.New("plain")))
}
