package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

// TestNew_JSONFile JSON格式写入文件，低于级别的日志被过滤
func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	l, closeFn, err := New(Options{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("ignored")
	l.Warn("封面镜像目录写入失败", "book_id", 7)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "只应有一行日志")
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "封面镜像目录写入失败", entry["msg"])
	assert.Equal(t, float64(7), entry["book_id"])
}

func TestNew_Console(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")

	l, closeFn, err := New(Options{Level: "info", Format: "console", Output: path})
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
