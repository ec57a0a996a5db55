package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
)

const principalKey = "auth.principal"

// Authenticator 把 bearer token 解析为调用方身份
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// AuthMiddleware 没有 Authorization 头时按匿名处理；token 无效时返回 401
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Set(principalKey, auth.Anonymous)
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			_ = c.Error(apperrors.NotRegistered())
			c.Abort()
			return
		}

		p, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom 取出 AuthMiddleware 设置的调用方，未设置时为匿名
func PrincipalFrom(c *gin.Context) auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Anonymous
}
