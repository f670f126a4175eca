package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// Recovery 捕获panic并返回统一错误格式
// 需注册在Logger之后,日志才能带上请求ID
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.ErrorContext(c.Request.Context(), "panic recovered",
			"request_id", RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		response.Error(c, apperrors.ErrInternal)
		c.Abort()
	})
}

// NoRoute 未注册路由统一返回404错误体
func NoRoute(c *gin.Context) {
	response.Error(c, apperrors.ErrNotFound)
}
