package handler

import (
	"errors"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"shortmark/internal/apperrors"
	"shortmark/internal/i18n"
	"shortmark/internal/service"
	"shortmark/response"
)

// 成功提示的消息 ID
const (
	msgOK               = "success.ok"
	msgCreated          = "success.created"
	msgUpdated          = "success.updated"
	msgDeleted          = "success.deleted"
	msgRegistered       = "success.registered"
	msgVerified         = "success.verified"
	msgVerificationSent = "success.verification_sent"
)

// Handler 持有各个服务，方法即 gin 路由处理函数
type Handler struct {
	users      *service.UserService
	bookmarks  *service.BookmarkService
	shortLinks *service.ShortLinkService
	whitelist  *service.WhitelistService
	stats      *service.StatsService
	baseURL    string
	logger     *zap.Logger
}

type Services struct {
	Users      *service.UserService
	Bookmarks  *service.BookmarkService
	ShortLinks *service.ShortLinkService
	Whitelist  *service.WhitelistService
	Stats      *service.StatsService
}

func New(svc Services, baseURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		users:      svc.Users,
		bookmarks:  svc.Bookmarks,
		shortLinks: svc.ShortLinks,
		whitelist:  svc.Whitelist,
		stats:      svc.Stats,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// bindJSON 绑定请求体；校验失败时优先使用字段上的 msg 标签作为错误提示
func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	h.logger.Warn("Request body binding failed",
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		t := reflect.TypeOf(req)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		for _, e := range validationErrs {
			if field, ok := t.FieldByName(e.StructField()); ok {
				if msg := field.Tag.Get("msg"); msg != "" {
					_ = c.Error(apperrors.InvalidRequestError(msg))
					return false
				}
			}
		}
	}
	_ = c.Error(apperrors.InvalidRequestErrorDefault())
	return false
}

func reply[T any](c *gin.Context, status int, data T, msgID string) {
	c.JSON(status, response.OK(data, i18n.T(c.Request.Context(), msgID, nil)))
}
