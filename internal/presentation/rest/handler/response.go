package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope 共通レスポンスエンベロープ
// 成功時はcode=0、失敗時はエラーハンドリングミドルウェアがcode=-1を返す
// @Description 共通レスポンスエンベロープ
type Envelope struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"discount applied"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Code    int    `json:"code" example:"-1"`
	Message string `json:"message" example:"invalid request body"`
}

// respondOK 成功レスポンスを返す
func respondOK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{
		Code:    0,
		Message: message,
		Data:    data,
	})
}
