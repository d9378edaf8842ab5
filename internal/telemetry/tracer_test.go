package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "toolsdir-api", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracerWithEndpoint(t *testing.T) {
	// The exporter connects lazily, so no collector has to be listening.
	shutdown, err := InitTracer(context.Background(), "toolsdir-api", "127.0.0.1:4317")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
}
