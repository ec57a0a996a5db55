package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shortmark/internal/dto"
	"shortmark/internal/middleware"
	"shortmark/internal/model"
	"shortmark/response"
)

func (h *Handler) bookmarkResponse(b model.Bookmark) dto.BookmarkResponse {
	return dto.NewBookmarkResponse(b, h.baseURL)
}

// CreateBookmark POST /api/bookmarks
func (h *Handler) CreateBookmark(c *gin.Context) {
	var req dto.CreateBookmarkRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bookmark, err := h.bookmarks.Create(c.Request.Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusCreated, h.bookmarkResponse(*bookmark), msgCreated)
}

// ListBookmarks GET /api/bookmarks?page=1&size=10
func (h *Handler) ListBookmarks(c *gin.Context) {
	var q dto.PageQuery
	_ = c.ShouldBindQuery(&q)

	page, err := h.bookmarks.List(c.Request.Context(), middleware.PrincipalFrom(c), q.Page, q.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, response.MapPage(page, h.bookmarkResponse), msgOK)
}

// GetBookmark GET /api/bookmarks/:id
func (h *Handler) GetBookmark(c *gin.Context) {
	bookmark, err := h.bookmarks.Get(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, h.bookmarkResponse(*bookmark), msgOK)
}

// UpdateBookmark PUT /api/bookmarks/:id
func (h *Handler) UpdateBookmark(c *gin.Context) {
	var req dto.UpdateBookmarkRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bookmark, err := h.bookmarks.Update(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, h.bookmarkResponse(*bookmark), msgUpdated)
}

// DeleteBookmark DELETE /api/bookmarks/:id
func (h *Handler) DeleteBookmark(c *gin.Context) {
	if err := h.bookmarks.Delete(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	reply[any](c, http.StatusOK, nil, msgDeleted)
}

// LinkBookmark POST /api/bookmarks/:id/shorturl
func (h *Handler) LinkBookmark(c *gin.Context) {
	link, err := h.shortLinks.LinkBookmark(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, dto.NewShortURLResponse(*link, h.baseURL), msgOK)
}

// UnlinkBookmark DELETE /api/bookmarks/:id/shorturl
func (h *Handler) UnlinkBookmark(c *gin.Context) {
	link, err := h.shortLinks.UnlinkBookmark(c.Request.Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, dto.NewShortURLResponse(*link, h.baseURL), msgUpdated)
}
