package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("discovery")
	logger.Logger = logger.Logger.Output(&buf)

	logger.Info().Msg("stage started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "discovery", entry["component"])
	assert.Equal(t, "stage started", entry["message"])
}

func TestLogStageEndUsesWarnOnErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("pricing")
	logger.Logger = logger.Logger.Output(&buf)

	logger.LogStageEnd(context.Background(), "pricing", 10, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, zerolog.WarnLevel.String(), entry["level"])
	assert.Equal(t, float64(2), entry["errors"])
}

func TestInitOTELWithoutCollector(t *testing.T) {
	shutdown, err := InitOTEL(context.Background(), Config{
		ServiceName:    "kulu-test",
		ServiceVersion: "test",
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NotNil(t, PrometheusRegistry)
	require.NotNil(t, ScanDuration)
	assert.NoError(t, shutdown(context.Background()))
}
