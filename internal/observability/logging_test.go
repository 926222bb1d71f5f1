package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContextFields(t *testing.T) {
	ctx := WithStage(WithBuildID(context.Background(), "b-1"), "parse")
	lc := GetContext(ctx)
	assert.Equal(t, "b-1", lc.BuildID)
	assert.Equal(t, "parse", lc.Stage)

	ctx = WithStage(ctx, "emit")
	assert.Equal(t, "emit", GetContext(ctx).Stage)
	assert.Equal(t, "b-1", GetContext(ctx).BuildID)
	assert.Empty(t, Attrs(context.Background()))
}

func TestLogHelpersIncludeContext(t *testing.T) {
	buf := captureLogs(t)
	ctx := WithStage(WithBuildID(context.Background(), "b-2"), "emit")

	InfoContext(ctx, "emitted", slog.Int("count", 3))
	WarnContext(ctx, "unresolved link")
	DebugContext(ctx, "detail")
	ErrorContext(ctx, "failed")

	out := buf.String()
	assert.Contains(t, out, "build_id=b-2")
	assert.Contains(t, out, "stage=emit")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "level=ERROR")
}
