package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	messages []string
	args     [][]any
}

func (l *recordingLogger) Info(msg string, args ...any)  { l.record(msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record(msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record(msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.record(msg, args) }

func (l *recordingLogger) record(msg string, args []any) {
	l.messages = append(l.messages, msg)
	l.args = append(l.args, args)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(LogLevelDebug))
	assert.Equal(t, slog.LevelWarn, ParseLevel(LogLevelWarn))
	assert.Equal(t, slog.LevelError, ParseLevel(LogLevelError))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWith_PrependsFields(t *testing.T) {
	inner := &recordingLogger{}
	logger := With(inner, "uploadId", "abc")

	logger.Info("Upload saved", "size", 10)

	require.Len(t, inner.args, 1)
	assert.Equal(t, []any{"uploadId", "abc", "size", 10}, inner.args[0])
	assert.Equal(t, NopLogger, With(nil, "a", 1))
	assert.Same(t, inner, With(inner).(*recordingLogger))
}

func TestCreateLogger_WritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	logger := CreateLogger(LogLevelInfo, dir, "upload-server")

	logger.Info("hello from test", "account", "demo")
	logger.Debug("filtered out")

	name := "upload-server-" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello from test"`)
	assert.Contains(t, string(data), `"account":"demo"`)
	assert.False(t, strings.Contains(string(data), "filtered out"))
}

func TestFromContext(t *testing.T) {
	scoped := &recordingLogger{}
	fallback := &recordingLogger{}

	ctx := NewContext(context.Background(), scoped)

	assert.Same(t, scoped, FromContext(ctx, fallback).(*recordingLogger))
	assert.Same(t, fallback, FromContext(context.Background(), fallback).(*recordingLogger))
	assert.Equal(t, NopLogger, FromContext(context.Background(), nil))
}
