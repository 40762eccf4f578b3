package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrpcTarget(t *testing.T) {
	target, insecure, err := grpcTarget("otel-collector:4317")
	require.NoError(t, err)
	assert.Equal(t, "otel-collector:4317", target)
	assert.True(t, insecure)

	target, insecure, err = grpcTarget("https://collector.example.com:4317/v1/traces")
	require.NoError(t, err)
	assert.Equal(t, "collector.example.com:4317", target)
	assert.False(t, insecure)

	_, _, err = grpcTarget("http://")
	assert.Error(t, err)
}

func TestNewProviders_SinEndpointNoExporta(t *testing.T) {
	p, err := NewProviders(context.Background(), "", "bizhub-api")
	require.NoError(t, err)
	assert.NotNil(t, p.TracerProvider)
	assert.NoError(t, p.Shutdown(context.Background()))
}
