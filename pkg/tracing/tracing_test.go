package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(config.Config{}, logger.NewNopLogger(), "billing-extractor-test")
	require.NoError(t, err)

	assert.Same(t, before, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_InstallsProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	var cfg config.Config
	cfg.App.Env = "test"
	// The gRPC client connects lazily, so no collector needs to listen here.
	cfg.Tracing.OTLPEndpoint = "127.0.0.1:4317"

	shutdown, err := Setup(cfg, logger.NewNopLogger(), "billing-extractor-test")
	require.NoError(t, err)
	assert.NotSame(t, before, otel.GetTracerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
