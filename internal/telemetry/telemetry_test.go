package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_DisabledWithoutEndpoint(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_EnabledWithEndpoint(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Endpoint: "http://127.0.0.1:4318", ServiceVersion: "test"})
	require.NoError(t, err)

	assert.True(t, p.Enabled())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
}
