package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/config"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.TelemetryConfig
		wantEnabled bool
	}{
		{name: "no endpoint", cfg: config.TelemetryConfig{}},
		{name: "insecure without endpoint", cfg: config.TelemetryConfig{Insecure: true}},
		{name: "endpoint", cfg: config.TelemetryConfig{OTLPEndpoint: "localhost:4317", Insecure: true}, wantEnabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := otel.GetTracerProvider()
			t.Cleanup(func() { otel.SetTracerProvider(prev) })

			shutdown := Setup(context.Background(), "tenantgate-test", tt.cfg, zap.NewNop())
			require.NotNil(t, shutdown)

			_, installed := otel.GetTracerProvider().(*sdktrace.TracerProvider)
			require.Equal(t, tt.wantEnabled, installed)

			// The exporter dials lazily, so shutting down with nothing
			// buffered needs no collector.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			require.NoError(t, shutdown(ctx))
		})
	}
}
