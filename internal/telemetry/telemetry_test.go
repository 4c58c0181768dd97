package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitWithoutExporter(t *testing.T) {
	ctx := context.Background()
	providers, err := Init(ctx, Options{
		ServiceName: "querydesk-test",
		Version:     "test",
		Registerer:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)

	_, span := otel.Tracer("test").Start(ctx, "op")
	require.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, providers.Shutdown(ctx))
}
