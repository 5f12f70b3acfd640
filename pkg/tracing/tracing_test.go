package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestSpanStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	_, ok := StartSpan(context.Background(), tracer, zap.NewNop(), "ok")
	ok.Count("controls", 3)
	ok.End(nil)

	_, failed := StartSpan(context.Background(), tracer, zap.NewNop(), "failed")
	failed.AddEvent("probing")
	failed.End(errors.New("frame blocked"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "frame blocked", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 2)
	assert.Equal(t, "probing", spans[1].Events()[0].Name)
}
