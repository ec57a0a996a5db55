package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortmark/internal/apperrors"
	"shortmark/internal/i18n"
	"shortmark/response"
)

// GlobalErrorMiddleware 把 handler 通过 c.Error 上报的错误统一转换为 JSON 响应
func GlobalErrorMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		ctx := c.Request.Context()

		for _, err := range c.Errors {
			var appErr *apperrors.AppError
			if errors.As(err.Err, &appErr) {
				if appErr.Kind == apperrors.KindStorage {
					logger.Error("Request failed with storage error",
						zap.String("path", c.Request.URL.Path),
						zap.Error(appErr))
				}
				c.AbortWithStatusJSON(appErr.Code,
					response.Error(string(appErr.Kind), i18n.T(ctx, appErr.Message, nil)))
				return
			}
		}

		// 未归类的错误按系统内部错误处理，原因只写日志
		logger.Error("Unhandled request error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(c.Errors.Last().Err))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			response.Error(string(apperrors.KindStorage), i18n.T(ctx, apperrors.MsgStorage, nil)))
	}
}
