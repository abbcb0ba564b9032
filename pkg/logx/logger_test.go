package logx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEntry_FieldsReachZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := logx.NewWithCore(core)

	ctx := logx.ContextWithRequestID(context.Background(), "req-1")
	l.WithFields(logx.Fields{"tenant": "demo"}).
		WithContext(ctx).
		WithError(errors.New("boom")).
		Warn("tenant store slow")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "tenant store slow", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "demo", fields["tenant"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "boom", fields["error"])
}

func TestFatal_UsesExitFunc(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := logx.NewWithCore(core)

	var code int
	l.SetExitFunc(func(c int) { code = c })
	l.WithField("reason", "keys").Fatal("cannot start")

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, logs.Len())
}

func TestNewLogger_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logx.NewLogger(&logx.Config{
		Level:   logx.LevelWarn,
		Format:  logx.FormatJSON,
		Service: "auth-service",
		Output:  &buf,
	})

	l.WithField("k", "v").Info("dropped")
	l.WithField("k", "v").Error("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &got))
	assert.Equal(t, "kept", got["message"])
	assert.Equal(t, "auth-service", got["service"])
	assert.Equal(t, "v", got["k"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logx.LevelWarn, logx.ParseLevel("warning"))
	assert.Equal(t, logx.LevelDebug, logx.ParseLevel(" debug "))
	assert.Equal(t, logx.LevelInfo, logx.ParseLevel("nonsense"))
}
