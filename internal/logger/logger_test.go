package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, buf *bytes.Buffer) *Logger {
	t.Helper()
	handler := NewColorTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false)
	return &Logger{slog: slog.New(handler)}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, false)
	l := &Logger{slog: slog.New(handler)}

	l.Info("should not appear")
	l.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestLogger_CtxFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf)

	ctx := WithSession(context.Background(), Session{Addr: "10.0.0.5:4000", User: "alice"})
	l.Ctx(ctx, LevelInfo, "CREATE request", KeyFile, "notes.txt")

	out := buf.String()
	require.True(t, strings.Contains(out, "[10.0.0.5:4000]"))
	require.True(t, strings.Contains(out, "[alice]"))
	require.True(t, strings.Contains(out, "file=notes.txt"))
}

func TestLogger_CtxNoSession(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf)

	l.Ctx(context.Background(), LevelWarn, "storage node failed", KeySSID, 3)

	out := buf.String()
	assert.Contains(t, out, "[] []")
	assert.Contains(t, out, "ss_id=3")
}

func TestFromContext_FallsBackWithoutPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		l := FromContext(context.Background())
		require.NotNil(t, l)
	})
}

func TestWithSession_RoundTrip(t *testing.T) {
	ctx := WithSession(context.Background(), Session{Addr: "a", User: "b", CorrID: "c"})
	s := SessionFromContext(ctx)
	assert.Equal(t, "a", s.Addr)
	assert.Equal(t, "b", s.User)
	assert.Equal(t, "c", s.CorrID)
}

func TestLogger_CtxIncludesCorrID(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf)

	ctx := WithSession(context.Background(), Session{Addr: "10.0.0.5:4000", User: "alice", CorrID: "f47b-1"})
	l.Ctx(ctx, LevelInfo, "CREATE request", KeyFile, "notes.txt")

	out := buf.String()
	assert.Contains(t, out, "corr_id=f47b-1")
}
