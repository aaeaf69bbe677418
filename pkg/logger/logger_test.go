package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobita2041/ai-chatbot/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", "key", "value")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, sonic.UnmarshalString(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}`, entry["time"])
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, config.LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestHertzLevel(t *testing.T) {
	assert.Equal(t, hlog.LevelDebug, HertzLevel("debug"))
	assert.Equal(t, hlog.LevelWarn, HertzLevel("WARNING"))
	assert.Equal(t, hlog.LevelError, HertzLevel("error"))
	assert.Equal(t, hlog.LevelInfo, HertzLevel("info"))
}

func TestContextLogger(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestHertzAdapter(t *testing.T) {
	var buf bytes.Buffer
	a := NewHertzSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	a.Debug("hidden at info")
	a.Infof("listening on %s", ":8080")
	a.SetLevel(hlog.LevelError)
	a.Warn("hidden at error")
	a.CtxErrorf(context.Background(), "boom %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="listening on :8080"`)
	assert.Contains(t, out, "source=hertz")
	assert.Contains(t, out, `level=ERROR msg="boom 1"`)
}
