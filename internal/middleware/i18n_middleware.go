package middleware

import (
	"github.com/gin-gonic/gin"

	"shortmark/internal/i18n"
)

// I18nMiddleware 根据 Accept-Language 选择语言，并把 Localizer 放进请求上下文
func I18nMiddleware(translator *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := translator.Match(c.GetHeader("Accept-Language"))
		ctx := i18n.WithLocalizer(c.Request.Context(), translator.Localizer(lang))
		c.Request = c.Request.WithContext(ctx)
		c.Header("Content-Language", lang.String())
		c.Next()
	}
}
