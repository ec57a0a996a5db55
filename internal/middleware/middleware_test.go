package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shortmark/internal/apperrors"
	"shortmark/internal/auth"
	"shortmark/internal/i18n"
)

type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type stubAuthenticator map[string]auth.Principal

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (auth.Principal, error) {
	p, ok := s[token]
	if !ok {
		return auth.Anonymous, apperrors.NotRegistered()
	}
	return p, nil
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	translator, err := i18n.InitI18n("en")
	require.NoError(t, err)

	r := gin.New()
	r.Use(ZapRecovery(zap.NewNop()))
	r.Use(GlobalErrorMiddleware(zap.NewNop()))
	r.Use(I18nMiddleware(translator))
	r.Use(CorsMiddleware())
	r.Use(AuthMiddleware(stubAuthenticator{"good": {UserID: "u1", IsVerified: true}}))
	return r
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAppErrorIsLocalized(t *testing.T) {
	r := newEngine(t)
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound(apperrors.MsgShortLinkNotFound))
	})

	w := do(r, http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "NotFound", body.Code)
	assert.Equal(t, "Short link not found", body.Message)

	w = do(r, http.MethodGet, "/missing", map[string]string{"Accept-Language": "zh-CN"})
	assert.Equal(t, "短链不存在", decode(t, w).Message)
	assert.Equal(t, "zh", w.Header().Get("Content-Language"))
}

func TestUnknownErrorHidesCause(t *testing.T) {
	r := newEngine(t)
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("dial tcp 10.0.0.1:3306: connection refused"))
	})

	w := do(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "StorageError", body.Code)
	assert.NotContains(t, body.Message, "10.0.0.1")
}

func TestRecoveryReturns500(t *testing.T) {
	r := newEngine(t)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "StorageError", decode(t, w).Code)
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(t)
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, PrincipalFrom(c).UserID)
	})

	w := do(r, http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, http.MethodGet, "/whoami", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	for _, header := range []string{"Bearer bad", "Basic good", "Bearer"} {
		w = do(r, http.MethodGet, "/whoami", map[string]string{"Authorization": header})
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Equal(t, "NotRegistered", decode(t, w).Code, header)
	}
}

func TestCorsPreflight(t *testing.T) {
	r := newEngine(t)
	r.POST("/api/shorturls", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := do(r, http.MethodOptions, "/api/shorturls", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestPrincipalFromDefaultsToAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, auth.Anonymous, PrincipalFrom(c))
}
