package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

// MetricsMiddleware リクエスト数とレスポンス時間を記録するミドルウェア
// ドメインエラーはエラーハンドリングミドルウェアがレスポンスに変換済みのため、
// エラー判定はレスポンスのステータスコードで行う
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			metrics.RecordRequest(c.Request().Context(), c.Request().Method, c.Path())

			err := next(c)

			duration := time.Since(start).Seconds()
			metrics.RecordResponseTime(c.Request().Context(), c.Request().Method, c.Path(), duration)

			if statusCode := c.Response().Status; statusCode >= 400 {
				errorType := "client_error"
				if statusCode >= 500 {
					errorType = "server_error"
				}
				metrics.RecordError(c.Request().Context(), errorType)
			}

			return err
		}
	}
}
