package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// Response 错误响应结构
// 设计说明：
// 1. Code是业务错误码（非HTTP状态码），方便客户端判断错误类型
// 2. Message是用户友好的提示信息
// 3. 成功时直接返回资源本身（图书对象或图书数组），不再包一层
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OK 200 直接返回资源
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Empty 200 无响应体（删除成功）
func Empty(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Error 错误响应（自动处理AppError）
// 用法：
//
//	b, err := bookService.CreateBook(...)
//	if err != nil {
//	    response.Error(c, err)
//	    return
//	}
func Error(c *gin.Context, err error) {
	// 提取AppError
	appErr := apperrors.GetAppError(err)
	status := appErr.HTTPStatus()

	// 服务端错误记录内部原因，客户端只看到友好提示
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"code", appErr.Code,
			"error", err,
		)
	}

	c.JSON(status, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(apperrors.HTTPStatus(code), Response{
		Code:    code,
		Message: message,
	})
}
