package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"propulsores/internal/config"
)

func readLastEntry(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "dashboard.log")
	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "file", FilePath: logFile})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("dataset loaded", "rows", 6)

	entry := readLastEntry(t, logFile)
	assert.Equal(t, "dataset loaded", entry["msg"])
	assert.Equal(t, float64(6), entry["rows"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestInitializeLogger_OnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	dir := t.TempDir()
	first, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(dir, "a.log")})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(dir, "b.log")})
	require.NoError(t, err)

	assert.Same(t, first, second)
	_, err = os.Stat(filepath.Join(dir, "b.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warning", false, false, true},
		{"error", false, false, false},
		{"bogus", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)
			ctx := context.Background()

			assert.Equal(t, tt.wantDebug, logger.Enabled(ctx, -4))
			assert.Equal(t, tt.wantInfo, logger.Enabled(ctx, 0))
			assert.Equal(t, tt.wantWarn, logger.Enabled(ctx, 4))
			assert.True(t, logger.Enabled(ctx, 8))
		})
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "req-123")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(ctx, "dataset.load")
	defer span.End()

	WithComponent(logger, "dataset_loader").InfoContext(ctx, "dataset loaded")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry["trace_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["span_trace_id"])
	assert.Equal(t, "dataset_loader", entry["component"])
}

func TestContextHelpers(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := EnsureTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, 36)

	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)))
	assert.NotEqual(t, traceID, GenerateTraceID())
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	assert.Same(t, logger, WithError(logger, nil))

	WithError(logger, os.ErrNotExist).Info("export failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "file does not exist", entry["error"])
}
