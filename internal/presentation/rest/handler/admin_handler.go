package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	discountapp "promo-server/internal/application/discount"
)

// AdminDiscountHandler 割引コード管理ハンドラー（管理API用）
type AdminDiscountHandler struct {
	discountService *discountapp.DiscountApplicationService
}

// NewAdminDiscountHandler 新しいAdminDiscountHandlerを作成
func NewAdminDiscountHandler(discountService *discountapp.DiscountApplicationService) *AdminDiscountHandler {
	return &AdminDiscountHandler{
		discountService: discountService,
	}
}

// CreateCode 割引コード作成ハンドラー（管理API用）
// @Summary 割引コードを作成（管理API）
// @Description 新しい割引コードを作成します
// @Tags admin
// @Accept json
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param request body AdminCreateCodeRequest true "割引コード作成リクエスト"
// @Success 200 {object} Envelope{data=AdminCodeResponse} "作成成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 409 {object} ErrorResponse "コードが既に存在"
// @Router /admin/discounts [post]
func (h *AdminDiscountHandler) CreateCode(c echo.Context) error {
	var reqBody AdminCreateCodeRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if reqBody.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	switch reqBody.DiscountType {
	case "percentage", "fixed", "credits":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "discount_type must be one of percentage, fixed, credits")
	}
	if reqBody.Value <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "value must be positive")
	}
	if reqBody.ValidFrom.IsZero() || reqBody.ValidUntil.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "valid_from and valid_until are required")
	}
	if !reqBody.ValidUntil.After(reqBody.ValidFrom) {
		return echo.NewHTTPError(http.StatusBadRequest, "valid_until must be after valid_from")
	}

	req := &discountapp.CreateCodeRequest{
		Code:         reqBody.Code,
		DiscountType: reqBody.DiscountType,
		Value:        reqBody.Value,
		MinAmount:    reqBody.MinAmount,
		MaxUses:      reqBody.MaxUses,
		ValidFrom:    reqBody.ValidFrom,
		ValidUntil:   reqBody.ValidUntil,
		ProductIDs:   reqBody.ProductIDs,
		UserLimit:    reqBody.UserLimit,
	}

	resp, err := h.discountService.CreateCode(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return respondOK(c, "code created", newAdminCodeResponse(resp))
}

// GetCode 割引コード取得ハンドラー（管理API用）
// @Summary 割引コードを取得（管理API）
// @Description 指定された割引コードの詳細を取得します
// @Tags admin
// @Accept json
// @Produce json
// @Param code path string true "割引コード" example(SAVE10)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} Envelope{data=AdminCodeResponse} "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "コードが見つからない"
// @Router /admin/discounts/{code} [get]
func (h *AdminDiscountHandler) GetCode(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	resp, err := h.discountService.GetCode(c.Request().Context(), &discountapp.GetCodeRequest{
		Code: code,
	})
	if err != nil {
		return err
	}

	return respondOK(c, "success", newAdminCodeResponse(resp))
}

// ListCodes 割引コード一覧取得ハンドラー（管理API用）
// @Summary 割引コード一覧を取得（管理API）
// @Description 割引コードの一覧を取得します
// @Tags admin
// @Accept json
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param limit query int false "取得件数（デフォルト50、最大100）"
// @Param offset query int false "オフセット"
// @Param discount_type query string false "割引種別で絞り込み" Enums(percentage, fixed, credits)
// @Param active_only query bool false "有効なコードのみ"
// @Success 200 {object} Envelope{data=AdminCodeListResponse} "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/discounts [get]
func (h *AdminDiscountHandler) ListCodes(c echo.Context) error {
	req := &discountapp.ListCodesRequest{
		Limit:        intQueryParam(c, "limit", 0),
		Offset:       intQueryParam(c, "offset", 0),
		DiscountType: c.QueryParam("discount_type"),
		ActiveOnly:   c.QueryParam("active_only") == "true",
	}

	resp, err := h.discountService.ListCodes(c.Request().Context(), req)
	if err != nil {
		return err
	}

	codes := make([]AdminCodeResponse, len(resp.Codes))
	for i, code := range resp.Codes {
		codes[i] = newAdminCodeResponse(code)
	}

	return respondOK(c, "success", AdminCodeListResponse{
		Codes:  codes,
		Total:  resp.Total,
		Limit:  resp.Limit,
		Offset: resp.Offset,
	})
}

// DeleteCode 割引コード削除ハンドラー（管理API用）
// @Summary 割引コードを削除（管理API）
// @Description 指定された割引コードを削除します。使用実績のあるコードは削除できません
// @Tags admin
// @Accept json
// @Produce json
// @Param code path string true "割引コード" example(SAVE10)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} Envelope{data=AdminDeleteCodeResponse} "削除成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "コードが見つからない"
// @Failure 409 {object} ErrorResponse "使用実績のあるコードは削除不可"
// @Router /admin/discounts/{code} [delete]
func (h *AdminDiscountHandler) DeleteCode(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	resp, err := h.discountService.DeleteCode(c.Request().Context(), &discountapp.DeleteCodeRequest{
		Code: code,
	})
	if err != nil {
		return err
	}

	return respondOK(c, "code deleted", AdminDeleteCodeResponse{
		Code:      resp.Code,
		DeletedAt: resp.DeletedAt,
	})
}

// newAdminCodeResponse アプリケーション層のレスポンスを管理APIレスポンスに変換
func newAdminCodeResponse(resp *discountapp.CodeResponse) AdminCodeResponse {
	return AdminCodeResponse{
		ID:           resp.ID,
		Code:         resp.Code,
		DiscountType: resp.DiscountType,
		Value:        resp.Value,
		MinAmount:    resp.MinAmount,
		MaxUses:      resp.MaxUses,
		UsedCount:    resp.UsedCount,
		ValidFrom:    resp.ValidFrom,
		ValidUntil:   resp.ValidUntil,
		ProductIDs:   resp.ProductIDs,
		UserLimit:    resp.UserLimit,
		IsActive:     resp.IsActive,
		CreatedAt:    resp.CreatedAt,
		UpdatedAt:    resp.UpdatedAt,
	}
}
