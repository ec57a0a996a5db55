package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shortmark/internal/dto"
	"shortmark/internal/middleware"
)

// Register POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusCreated, user, msgRegistered)
}

// Login POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		UserID:    result.User.ID,
	}, msgOK)
}

// VerifyEmail GET /api/auth/verify?token=
func (h *Handler) VerifyEmail(c *gin.Context) {
	user, err := h.users.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, user, msgVerified)
}

// ResendVerification POST /api/auth/resend
func (h *Handler) ResendVerification(c *gin.Context) {
	if err := h.users.ResendVerification(c.Request.Context(), middleware.PrincipalFrom(c)); err != nil {
		_ = c.Error(err)
		return
	}
	reply[any](c, http.StatusOK, nil, msgVerificationSent)
}

// Me GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.Me(c.Request.Context(), middleware.PrincipalFrom(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	reply(c, http.StatusOK, user, msgOK)
}
