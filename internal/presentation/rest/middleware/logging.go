package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

// LoggingMiddleware リクエスト完了ログを記録するミドルウェア
// ヘルスチェックとドキュメント配信はログに残さない
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if path == "/health" || isSwaggerPath(path) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":      c.Request().Method,
				"path":        path,
				"status_code": c.Response().Status,
				"duration_ms": duration.Milliseconds(),
				"remote_addr": getClientIP(c),
			}
			if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
				fields["request_id"] = requestID
			}
			if userUUID, ok := c.Get("user_uuid").(string); ok && userUUID != "" {
				fields["user_uuid"] = userUUID
			}

			if err != nil {
				logger.Error(c.Request().Context(), "HTTP request failed", err, fields)
			} else {
				logger.Info(c.Request().Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}
