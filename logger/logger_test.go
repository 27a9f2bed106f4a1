package logger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{name: "JSON output mode", jsonOutput: true, verbosity: 0},
		{name: "Console output mode", jsonOutput: false, verbosity: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.Equal(t, "Trace (-vvv+)", LevelName(5))
}

func TestFieldsFromContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithPlatform(ctx, "ios")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{FieldRunID, "run-1", FieldPlatform, "ios"}, fields)
	assert.Empty(t, FieldsFromContext(context.Background()))
}

func TestMinimalEncoder(t *testing.T) {
	enc := newMinimalEncoder()
	enc.AddString(FieldPlatform, "web")

	buf, err := enc.EncodeEntry(zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "matcher",
		Message:    "oracle failed",
	}, []zapcore.Field{zap.Int(FieldBatchSize, 3)})
	require.NoError(t, err)

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "13:04:35")
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "matcher")
	assert.Contains(t, line, "oracle failed")
	assert.Contains(t, line, "batch_size=3 platform=web")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample().Sugar()
	assert.Same(t, l, OrNop(l))
}
