package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSecurityHeaders(t *testing.T, target string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := SecurityHeadersMiddleware()
	_ = mw(handler)(c)
	return rec
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	okHandler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	t.Run("正常系: 基本ヘッダーがすべて設定される", func(t *testing.T) {
		rec := runSecurityHeaders(t, "/api/v1/discounts/validate", okHandler)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	})

	t.Run("正常系: 通常のAPIパスでは厳格なCSPが設定される", func(t *testing.T) {
		rec := runSecurityHeaders(t, "/api/v1/discounts/redeem", okHandler)

		csp := rec.Header().Get("Content-Security-Policy")
		assert.Contains(t, csp, "default-src 'self'")
		assert.NotContains(t, csp, "https://unpkg.com")
		assert.NotContains(t, csp, "https://cdn.jsdelivr.net")
	})

	t.Run("正常系: ドキュメントパスでは外部CDNを許可するCSPが設定される", func(t *testing.T) {
		for _, path := range []string{"/swagger/index.html", "/redoc", "/openapi.yaml"} {
			rec := runSecurityHeaders(t, path, okHandler)

			csp := rec.Header().Get("Content-Security-Policy")
			assert.Contains(t, csp, "https://unpkg.com", path)
			assert.Contains(t, csp, "https://cdn.jsdelivr.net", path)
		}
	})

	t.Run("正常系: HTTPSの場合のみHSTSヘッダーが設定される", func(t *testing.T) {
		rec := runSecurityHeaders(t, "https://example.com/health", okHandler)
		assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")

		rec = runSecurityHeaders(t, "http://example.com/health", okHandler)
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("異常系: ハンドラーがエラーを返してもヘッダーは設定される", func(t *testing.T) {
		rec := runSecurityHeaders(t, "/api/v1/discounts/validate", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusInternalServerError, "boom")
		})

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	})
}

func TestIsSwaggerPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/swagger/index.html", true},
		{"/swagger", true},
		{"/redoc", true},
		{"/openapi.yaml", true},
		{"/api/v1/discounts/validate", false},
		{"/health", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isSwaggerPath(tt.path))
		})
	}
}

func TestSecurityHeadersMiddleware_HeadersVisibleInHandler(t *testing.T) {
	rec := runSecurityHeaders(t, "/api/v1/discounts/validate", func(c echo.Context) error {
		// 後続のハンドラーからヘッダーが参照できる
		require.Equal(t, "DENY", c.Response().Header().Get("X-Frame-Options"))
		return c.String(http.StatusOK, "ok")
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
