package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerWithPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "keycapgen.log")

	result := NewLoggerWithPath(Config{Level: "info", Format: FormatJSON, Output: OutputFile, File: path})
	t.Cleanup(func() { _ = result.Close() })

	require.True(t, result.UsingFile)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t, path, result.FilePath)

	ctx := ContextWithTraceID(context.Background(), "01TESTTRACE")
	renderLog := ComponentLogger(result.Logger, "render")
	renderLog.Info().Ctx(ctx).Str("file", "A.3mf").Msg("rendered")
	renderLog.Debug().Msg("hidden")
	require.NoError(t, result.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "render", entry["component"])
	assert.Equal(t, "01TESTTRACE", entry[TraceIDField])
	assert.Equal(t, "A.3mf", entry["file"])
	assert.Equal(t, "rendered", entry["message"])
}

func TestNewLoggerWithPath_FileFallback(t *testing.T) {
	result := NewLoggerWithPath(Config{Output: OutputFile})
	assert.False(t, result.UsingFile)
	assert.True(t, result.FallbackUsed)
	assert.Contains(t, result.FallbackReason, "no file is configured")
	assert.NoError(t, result.Close())
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())

	var buf bytes.Buffer
	l := zerolog.New(&buf)
	ctx := l.WithContext(context.Background())
	FromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))

	id := GetOrGenerateTraceID(ctx)
	_, err := ulid.ParseStrict(id)
	require.NoError(t, err)

	ctx = ContextWithTraceID(ctx, id)
	assert.Equal(t, id, TraceIDFromContext(ctx))
	assert.Equal(t, id, GetOrGenerateTraceID(ctx))
}

func TestPrintMessages(t *testing.T) {
	var buf bytes.Buffer
	PrintLogPathMessage(&buf, "/tmp/k.log")
	PrintFallbackWarning(&buf, "permission denied")
	assert.Equal(t, "Logging to /tmp/k.log\nWarning: could not write log file (permission denied); logging to stderr\n", buf.String())
}
