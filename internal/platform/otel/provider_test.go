package otel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"collegeportal/internal/platform/config"
	"collegeportal/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), config.Telemetry{ServiceName: "test-service"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, shutdown(ctx), "noop shutdown ignores a cancelled context")
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	shutdown, err := otel.Setup(context.Background(), config.Telemetry{
		OTLPEndpoint: "http://192.0.2.1:4318",
		ServiceName:  "test-service",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
