package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookshelf/pkg/tracing"
)

const httpTracerName = "bookshelf/http"

// Tracing 为每个请求创建根Span，并把带Span的ctx放回Request
// 未初始化TracerProvider时otel使用noop实现，开销可以忽略
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), httpTracerName, c.Request.Method+" "+c.FullPath())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
			attribute.Int("http.status_code", status),
		)
		var err error
		if status >= 500 {
			err = fmt.Errorf("http status %d", status)
		}
		tracing.EndSpan(span, err)
	}
}
