package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	discountapp "promo-server/internal/application/discount"
)

// DiscountHandler 割引コード関連ハンドラー
type DiscountHandler struct {
	discountService *discountapp.DiscountApplicationService
}

// NewDiscountHandler 新しいDiscountHandlerを作成
func NewDiscountHandler(discountService *discountapp.DiscountApplicationService) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
	}
}

// ValidateCode 割引コード検証ハンドラー（ドライラン、状態変更なし）
// @Summary 割引コードを検証
// @Description 注文に対して割引コードが適用可能か検証します。状態は変更されません
// @Tags discounts
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ValidateCodeRequest true "検証リクエスト"
// @Success 200 {object} Envelope{data=ValidationResultResponse} "検証結果（適用不可もcode=0で返す）"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /discounts/validate [post]
func (h *DiscountHandler) ValidateCode(c echo.Context) error {
	var reqBody ValidateCodeRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	userUUID, ok := c.Get("user_uuid").(string)
	if !ok || userUUID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_uuid not found in token")
	}

	if reqBody.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if reqBody.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be positive")
	}

	req := &discountapp.ValidateRequest{
		Code:      reqBody.Code,
		ProductID: reqBody.ProductID,
		Amount:    reqBody.Amount,
		UserUUID:  userUUID,
	}

	result, err := h.discountService.Validate(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return respondOK(c, result.Message, newValidationResultResponse(result))
}

// RedeemCode 割引コード引き換えハンドラー（注文確定時の状態変更）
// @Summary 割引コードを引き換え
// @Description 注文確定時に割引コードを消費します。同一注文番号の再送には前回と同じ結果を返します
// @Tags discounts
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body RedeemCodeRequest true "引き換えリクエスト"
// @Success 200 {object} Envelope{data=ValidationResultResponse} "引き換え結果（適用不可もcode=0で返す）"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 409 {object} ErrorResponse "競合リトライ上限到達"
// @Failure 429 {object} ErrorResponse "レート制限"
// @Router /discounts/redeem [post]
func (h *DiscountHandler) RedeemCode(c echo.Context) error {
	var reqBody RedeemCodeRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	userUUID, ok := c.Get("user_uuid").(string)
	if !ok || userUUID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_uuid not found in token")
	}

	if reqBody.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if reqBody.Amount <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be positive")
	}
	if reqBody.OrderNo == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order_no is required")
	}

	req := &discountapp.ConsumeRequest{
		Code:      reqBody.Code,
		ProductID: reqBody.ProductID,
		Amount:    reqBody.Amount,
		UserUUID:  userUUID,
		OrderNo:   reqBody.OrderNo,
	}

	result, err := h.discountService.Consume(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return respondOK(c, result.Message, newValidationResultResponse(result))
}

// ListRedemptions ユーザーの引き換え履歴取得ハンドラー
// @Summary 引き換え履歴を取得
// @Description 指定されたユーザーの割引コード引き換え履歴を取得します
// @Tags discounts
// @Accept json
// @Produce json
// @Security Bearer
// @Param user_uuid path string true "ユーザーUUID"
// @Param limit query int false "取得件数（デフォルト50、最大100）"
// @Param offset query int false "オフセット"
// @Success 200 {object} Envelope{data=RedemptionListResponse} "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 403 {object} ErrorResponse "他ユーザーの履歴は参照不可"
// @Router /users/{user_uuid}/redemptions [get]
func (h *DiscountHandler) ListRedemptions(c echo.Context) error {
	pathUUID := c.Param("user_uuid")
	if pathUUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_uuid is required")
	}

	// トークンのuser_uuidとパスのuser_uuidが一致するか確認
	tokenUUID, ok := c.Get("user_uuid").(string)
	if !ok || tokenUUID != pathUUID {
		return echo.NewHTTPError(http.StatusForbidden, "user_uuid mismatch")
	}

	limit := intQueryParam(c, "limit", 0)
	offset := intQueryParam(c, "offset", 0)

	req := &discountapp.ListRedemptionsRequest{
		UserUUID: pathUUID,
		Limit:    limit,
		Offset:   offset,
	}

	resp, err := h.discountService.ListUserRedemptions(c.Request().Context(), req)
	if err != nil {
		return err
	}

	items := make([]RedemptionItemResponse, len(resp.Redemptions))
	for i, r := range resp.Redemptions {
		items[i] = RedemptionItemResponse{
			UsageID:        r.UsageID,
			DiscountCodeID: r.DiscountCodeID,
			OrderNo:        r.OrderNo,
			DiscountAmount: r.DiscountAmount,
			BonusCredits:   r.BonusCredits,
			UsedAt:         r.UsedAt,
		}
	}

	return respondOK(c, "success", RedemptionListResponse{
		Redemptions: items,
		Limit:       resp.Limit,
		Offset:      resp.Offset,
	})
}

// newValidationResultResponse アプリケーション層の結果をレスポンスに変換
func newValidationResultResponse(result *discountapp.ValidationResult) ValidationResultResponse {
	resp := ValidationResultResponse{
		Valid:          result.Valid,
		Reason:         result.Reason,
		DiscountAmount: result.DiscountAmount,
		BonusCredits:   result.BonusCredits,
		FinalAmount:    result.FinalAmount,
		Replayed:       result.Replayed,
	}
	if result.Code != nil {
		resp.Code = &CodeSummaryResponse{
			Code:         result.Code.Code,
			DiscountType: result.Code.DiscountType,
			Value:        result.Code.Value,
		}
	}
	return resp
}

// intQueryParam クエリパラメータを整数として取得する
func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
