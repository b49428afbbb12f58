package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	eligibilityapp "promo-server/internal/application/eligibility"
)

// EligibilityHandler 新規ユーザー向け特典の資格確認ハンドラー
type EligibilityHandler struct {
	eligibilityService *eligibilityapp.EligibilityApplicationService
}

// NewEligibilityHandler 新しいEligibilityHandlerを作成
func NewEligibilityHandler(eligibilityService *eligibilityapp.EligibilityApplicationService) *EligibilityHandler {
	return &EligibilityHandler{
		eligibilityService: eligibilityService,
	}
}

// CheckNewcomerEligibility 新規ユーザー特典の資格確認ハンドラー
// 結果は参考情報であり、最終的な重複防止は注文作成時の一意性制約で行われる
// @Summary 新規ユーザー特典の資格を確認
// @Description 指定されたユーザーが新規ユーザー向け特典を利用可能か確認します
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param user_uuid path string true "ユーザーUUID"
// @Success 200 {object} Envelope{data=EligibilityResponse} "確認成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 403 {object} ErrorResponse "他ユーザーの資格は確認不可"
// @Router /users/{user_uuid}/newcomer-eligibility [get]
func (h *EligibilityHandler) CheckNewcomerEligibility(c echo.Context) error {
	pathUUID := c.Param("user_uuid")
	if pathUUID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_uuid is required")
	}

	// トークンのuser_uuidとパスのuser_uuidが一致するか確認
	tokenUUID, ok := c.Get("user_uuid").(string)
	if !ok || tokenUUID != pathUUID {
		return echo.NewHTTPError(http.StatusForbidden, "user_uuid mismatch")
	}

	resp, err := h.eligibilityService.Check(c.Request().Context(), &eligibilityapp.CheckRequest{
		UserUUID: pathUUID,
	})
	if err != nil {
		return err
	}

	message := "eligible for newcomer offer"
	if !resp.Eligible {
		message = "newcomer offer already used"
	}

	return respondOK(c, message, EligibilityResponse{
		UserUUID:  resp.UserUUID,
		ProductID: resp.ProductID,
		Eligible:  resp.Eligible,
	})
}
