package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"shortmark/internal/dto"
	"shortmark/internal/i18n"
	"shortmark/internal/middleware"
)

// NewRouter 组装中间件和全部路由
func NewRouter(h *Handler, translator *i18n.Translator, logger *zap.Logger) (*gin.Engine, error) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	if err := dto.RegisterValidators(v); err != nil {
		return nil, fmt.Errorf("registering validators: %w", err)
	}

	r := gin.New()
	r.Use(middleware.ZapRecovery(logger))
	r.Use(middleware.GlobalErrorMiddleware(logger))
	r.Use(middleware.ZapGinLogger(logger))
	r.Use(middleware.CorsMiddleware())
	r.Use(middleware.I18nMiddleware(translator))

	// 跳转是公开接口，不经过认证
	r.GET("/s/:code", h.Redirect)

	api := r.Group("/api", middleware.AuthMiddleware(h.users))
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/verify", h.VerifyEmail)
		authGroup.POST("/resend", h.ResendVerification)
		authGroup.GET("/me", h.Me)

		bookmarks := api.Group("/bookmarks")
		bookmarks.POST("", h.CreateBookmark)
		bookmarks.GET("", h.ListBookmarks)
		bookmarks.GET("/:id", h.GetBookmark)
		bookmarks.PUT("/:id", h.UpdateBookmark)
		bookmarks.DELETE("/:id", h.DeleteBookmark)
		bookmarks.POST("/:id/shorturl", h.LinkBookmark)
		bookmarks.DELETE("/:id/shorturl", h.UnlinkBookmark)

		shortURLs := api.Group("/shorturls")
		shortURLs.POST("", h.CreateShortURL)
		shortURLs.GET("", h.ListShortURLs)
		shortURLs.GET("/exists/:code", h.CheckExists)
		shortURLs.GET("/:id", h.GetShortURL)
		shortURLs.PUT("/:id", h.UpdateShortURL)
		shortURLs.DELETE("/:id", h.DeleteShortURL)
		shortURLs.GET("/:id/stats", h.GetStats)

		admin := api.Group("/admin")
		admin.GET("/shorturls", h.ListAllShortURLs)
		admin.POST("/whitelist", h.CreateWhitelistDomain)
		admin.GET("/whitelist", h.ListWhitelistDomains)
		admin.DELETE("/whitelist/:id", h.DeleteWhitelistDomain)
	}
	return r, nil
}
