package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	shutdown, err := InitTracing(DefaultTracingConfig())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := NewSpan(context.Background(), "noop")
	span.SetAttribute("rows", 3)
	span.End()
}

func TestInitTracingWritesSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Output = filepath.Join(t.TempDir(), "spans.json")

	shutdown, err := InitTracing(cfg)
	require.NoError(t, err)

	_, span := NewSpan(context.Background(), "ingest.Run")
	span.SetAttribute("strategy", "split")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	b, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `"Name":"ingest.Run"`), string(b))
	assert.True(t, strings.Contains(string(b), "split"))
}

func TestSpanAttributesAndStatus(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exp := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)))

	_, span := NewSpan(context.Background(), "ingest.Run")
	span.SetAttribute("lines", 7)
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("fatal", false)
	span.SetError(errors.New("open failed"))
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "ingest.Run", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "7", attrs["lines"])
	assert.Equal(t, "0.5", attrs["ratio"])
	assert.Equal(t, "false", attrs["fatal"])
	assert.Contains(t, attrs, "duration_ms")
}
