package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortmark/internal/dto"
	"shortmark/internal/middleware"
	"shortmark/internal/model"
	"shortmark/response"
)

func (h *Handler) shortURLResponse(link model.ShortLink) dto.ShortURLResponse {
	return dto.NewShortURLResponse(link, h.baseURL)
}

// CreateShortURL POST /api/shorturls
func (h *Handler) CreateShortURL(c *gin.Context) {
	var req dto.CreateShortURLRequest
	if !h.bindJSON(c, &req) {
		return
	}
	link, err := h.shortLinks.CreateShortURL(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusCreated, h.shortURLResponse(*link), msgCreated)
}

// ListShortURLs GET /api/shorturls?page=1&size=10 当前用户自己的短链
func (h *Handler) ListShortURLs(c *gin.Context) {
	var q dto.PageQuery
	_ = c.ShouldBindQuery(&q)

	page, err := h.shortLinks.ListOwn(c.Request.Context(), middleware.PrincipalFrom(c), q.Page, q.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, response.MapPage(page, h.shortURLResponse), msgOK)
}

// ListAllShortURLs GET /api/admin/shorturls 管理员查看全部短链
func (h *Handler) ListAllShortURLs(c *gin.Context) {
	var q dto.PageQuery
	_ = c.ShouldBindQuery(&q)

	page, err := h.shortLinks.ListAll(c.Request.Context(), middleware.PrincipalFrom(c), q.Page, q.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, response.MapPage(page, h.shortURLResponse), msgOK)
}

// CheckExists GET /api/shorturls/exists/:code
func (h *Handler) CheckExists(c *gin.Context) {
	code := c.Param("code")
	exists, err := h.shortLinks.CheckExists(c.Request.Context(), middleware.PrincipalFrom(c), code)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, dto.ExistsResponse{Code: code, Exists: exists}, msgOK)
}

// GetShortURL GET /api/shorturls/:id
func (h *Handler) GetShortURL(c *gin.Context) {
	link, err := h.shortLinks.GetShortURL(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, h.shortURLResponse(*link), msgOK)
}

// UpdateShortURL PUT /api/shorturls/:id
func (h *Handler) UpdateShortURL(c *gin.Context) {
	var req dto.UpdateShortURLRequest
	if !h.bindJSON(c, &req) {
		return
	}
	link, err := h.shortLinks.UpdateShortURL(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, h.shortURLResponse(*link), msgUpdated)
}

// DeleteShortURL DELETE /api/shorturls/:id
func (h *Handler) DeleteShortURL(c *gin.Context) {
	if err := h.shortLinks.DeleteShortURL(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	reply[any](c, http.StatusOK, nil, msgDeleted)
}

// GetStats GET /api/shorturls/:id/stats
func (h *Handler) GetStats(c *gin.Context) {
	linkStats, err := h.stats.GetStats(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, linkStats, msgOK)
}

// Redirect GET /s/:code 公开跳转，按客户端 IP 统计 UV
func (h *Handler) Redirect(c *gin.Context) {
	code := c.Param("code")
	target, err := h.shortLinks.Resolve(c.Request.Context(), code, c.ClientIP())
	if err != nil {
		h.logger.Debug("Short link resolve failed", zap.String("short_code", code), zap.Error(err))
		_ = c.Error(err)
		return
	}

	// 禁止缓存 302，保证每次访问都能计数
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, target)
}
