package tracer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type logEntry struct {
	level   string
	module  string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level, module, message, details})
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.record("debug", module, message, details)
}

func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.record("info", module, message, details)
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.record("warn", module, message, details)
}

func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.record("error", module, message, details)
}

func (l *recordingLogger) Sync() error { return nil }

func TestInitTracer_Disabled(t *testing.T) {
	log := &recordingLogger{}
	before := otel.GetTracerProvider()

	shutdown := InitTracer(Config{Enabled: false}, log)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())

	require.Len(t, log.entries, 1)
	assert.Equal(t, "info", log.entries[0].level)
	assert.Equal(t, "TRACER", log.entries[0].module)
}

func TestInitTracer_EnabledInstallsProvider(t *testing.T) {
	log := &recordingLogger{}
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown := InitTracer(Config{Enabled: true, Environment: "test"}, log)
	require.NotNil(t, shutdown)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	require.Len(t, log.entries, 1)
	assert.Equal(t, defaultEndpoint, log.entries[0].details["endpoint"])

	// Nothing was recorded, so shutdown has no spans to push to the absent collector.
	assert.NoError(t, shutdown(context.Background()))
}
