package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetupNoopWithoutEndpoint(t *testing.T) {
	tp, shutdown, err := Setup(context.Background(), "", "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSetupCreatesProvider(t *testing.T) {
	// Non-routable address: nothing is exported.
	tp, shutdown, err := Setup(context.Background(), "http://192.0.2.1:4318", "1.0.0")
	require.NoError(t, err)
	assert.IsType(t, &sdktrace.TracerProvider{}, tp)

	_, span := tp.Tracer("test").Start(context.Background(), "sampled")
	assert.True(t, span.SpanContext().IsValid())

	require.NoError(t, shutdown(context.Background()))
}
