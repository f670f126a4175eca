// Package logger 初始化全局slog日志
//
// 两种输出格式：
//   - console：人类可读的单行格式（开发环境），基于humanlog
//   - json：结构化JSON（生产环境，便于日志平台采集）
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/humanlog"
)

// Options 日志配置
type Options struct {
	Level  string // debug | info | warn | error
	Format string // console | json
	Output string // stdout | stderr | 文件路径
}

// New 根据配置创建Logger
// 返回的close函数用于关闭日志文件（输出到stdout/stderr时为空操作）
func New(opts Options) (*slog.Logger, func() error, error) {
	w, closeFn, err := openOutput(opts.Output)
	if err != nil {
		return nil, nil, err
	}

	level := ParseLevel(opts.Level)

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = humanlog.NewHandler(w, &humanlog.Options{Level: level})
	}

	return slog.New(handler), closeFn, nil
}

// Init 创建Logger并设置为slog默认Logger
func Init(opts Options) (func() error, error) {
	l, closeFn, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return closeFn, nil
}

// ParseLevel 解析日志级别，无法识别时使用info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutput(output string) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	switch output {
	case "", "stdout":
		return os.Stdout, noop, nil
	case "stderr":
		return os.Stderr, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	return f, f.Close, nil
}
