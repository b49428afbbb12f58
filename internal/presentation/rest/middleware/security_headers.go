package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// APIエンドポイント用の厳格なCSP
const apiCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'"

// APIドキュメント用のCSP。Swagger UIとReDocが外部CDNから
// アセットを読み込むため、unpkg.comとcdn.jsdelivr.netを許可する。
const docsCSP = "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline' https://unpkg.com https://fonts.googleapis.com; font-src 'self' https://fonts.gstatic.com; img-src 'self' data: https:;"

// SecurityHeadersMiddleware セキュリティヘッダーを設定するミドルウェア
func SecurityHeadersMiddleware() echo.MiddlewareFunc {
	baseHeaders := map[string]string{
		"X-XSS-Protection":       "1; mode=block",
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			for name, value := range baseHeaders {
				header.Set(name, value)
			}

			csp := apiCSP
			if isSwaggerPath(c.Request().URL.Path) {
				csp = docsCSP
			}
			header.Set("Content-Security-Policy", csp)

			if c.Scheme() == "https" {
				header.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			return next(c)
		}
	}
}

// isSwaggerPath APIドキュメント関連のパスかどうかを判定
func isSwaggerPath(path string) bool {
	return strings.HasPrefix(path, "/swagger") || path == "/redoc" || path == "/openapi.yaml"
}
