package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xiebiao/bookshelf/pkg/tracing"
)

// RequestIDHeader 请求ID响应头
const RequestIDHeader = "X-Request-ID"

// slowRequestThreshold 慢请求阈值
const slowRequestThreshold = 3 * time.Second

// Logger 请求日志中间件
//
// 教学要点：
// 1. 记录每个请求的基本信息（方法、路径、耗时、状态码）
// 2. 生成唯一的请求ID，客户端已携带X-Request-ID时沿用
// 3. 结构化日志输出（slog），开启链路追踪时附带trace_id
//
// 不记录请求体：封面上传是multipart文件，可能很大
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 步骤1: 生成请求ID
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		// 步骤2: 记录开始时间
		start := time.Now()

		// 步骤3: 处理请求
		c.Next()

		// 步骤4: 记录请求信息
		latency := time.Since(start)
		status := c.Writer.Status()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency,
			"client_ip", c.ClientIP(),
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			attrs = append(attrs, "trace_id", traceID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "http request", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "http request", attrs...)
		default:
			slog.InfoContext(ctx, "http request", attrs...)
		}

		// 记录慢请求警告
		if latency > slowRequestThreshold {
			slog.WarnContext(ctx, "slow request", "method", c.Request.Method, "path", c.Request.URL.Path, "latency", latency)
		}
	}
}

// RequestID 获取当前请求ID
func RequestID(c *gin.Context) string {
	return c.GetString("request_id")
}
