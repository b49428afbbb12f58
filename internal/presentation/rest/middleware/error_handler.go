package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"promo-server/internal/domain/discount_code"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンスの統一エンベロープ
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// newErrorResponse 失敗エンベロープを作成（codeは常に-1）
func newErrorResponse(message string) ErrorResponse {
	return ErrorResponse{
		Code:    -1,
		Message: message,
	}
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
// ビジネスルール違反はアプリケーション層で無効結果として処理されるため、
// ここに到達するドメインエラーは管理操作と一時的な障害のみ
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	if errors.Is(err, discount_code.ErrCodeNotFound) {
		logger.Warn(ctx, "Discount code not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, newErrorResponse(err.Error()))
	}

	if errors.Is(err, discount_code.ErrCodeAlreadyExists) {
		logger.Warn(ctx, "Discount code already exists", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, newErrorResponse(err.Error()))
	}

	if errors.Is(err, discount_code.ErrCodeHasUsages) {
		logger.Warn(ctx, "Discount code has usages", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, newErrorResponse(err.Error()))
	}

	if errors.Is(err, discount_code.ErrConflictRetriesExhausted) {
		logger.Warn(ctx, "Consume retries exhausted", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, newErrorResponse(err.Error()))
	}

	if errors.Is(err, discount_code.ErrUsageNotFound) {
		logger.Warn(ctx, "Usage not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, newErrorResponse(err.Error()))
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, newErrorResponse(message))
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, newErrorResponse("An unexpected error occurred"))
}
