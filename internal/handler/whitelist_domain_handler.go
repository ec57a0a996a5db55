package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortmark/internal/dto"
	"shortmark/internal/middleware"
)

// CreateWhitelistDomain POST /api/admin/whitelist
func (h *Handler) CreateWhitelistDomain(c *gin.Context) {
	var req dto.CreateWhitelistDomainRequest
	if !h.bindJSON(c, &req) {
		return
	}
	domain, err := h.whitelist.Create(c.Request.Context(), middleware.PrincipalFrom(c), req.Domain)
	if err != nil {
		h.logger.Warn("Whitelist domain creation failed", zap.Error(err), zap.String("domain", req.Domain))
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusCreated, domain, msgCreated)
}

// ListWhitelistDomains GET /api/admin/whitelist?keyword=xxx&page=1&size=10
func (h *Handler) ListWhitelistDomains(c *gin.Context) {
	var q dto.PageQuery
	_ = c.ShouldBindQuery(&q)

	page, err := h.whitelist.List(c.Request.Context(), middleware.PrincipalFrom(c), q.Keyword, q.Page, q.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, page, msgOK)
}

// DeleteWhitelistDomain DELETE /api/admin/whitelist/:id
func (h *Handler) DeleteWhitelistDomain(c *gin.Context) {
	if err := h.whitelist.Delete(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	reply[any](c, http.StatusOK, nil, msgDeleted)
}
