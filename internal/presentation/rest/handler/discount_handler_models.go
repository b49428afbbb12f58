package handler

import "time"

// ValidateCodeRequest 割引コード検証リクエスト
// @Description 割引コード検証リクエスト
type ValidateCodeRequest struct {
	Code      string `json:"code" example:"SAVE10"`
	ProductID string `json:"product_id" example:"prod-001"`
	Amount    int64  `json:"amount" example:"1000"`
}

// RedeemCodeRequest 割引コード引き換えリクエスト
// @Description 割引コード引き換えリクエスト
type RedeemCodeRequest struct {
	Code      string `json:"code" example:"SAVE10"`
	ProductID string `json:"product_id" example:"prod-001"`
	Amount    int64  `json:"amount" example:"1000"`
	OrderNo   string `json:"order_no" example:"ORD-20260831-0001"`
}

// CodeSummaryResponse 検証結果に含める割引コードの概要
// @Description 割引コードの概要
type CodeSummaryResponse struct {
	Code         string `json:"code" example:"SAVE10"`
	DiscountType string `json:"discount_type" example:"percentage" enums:"percentage,fixed,credits"`
	Value        int64  `json:"value" example:"10"`
}

// ValidationResultResponse 割引コード検証・引き換え結果
// @Description 割引コード検証・引き換え結果
type ValidationResultResponse struct {
	Valid          bool                 `json:"valid" example:"true"`
	Reason         string               `json:"reason,omitempty" example:"code_exhausted"`
	Code           *CodeSummaryResponse `json:"code,omitempty"`
	DiscountAmount int64                `json:"discount_amount" example:"100"`
	BonusCredits   int64                `json:"bonus_credits" example:"0"`
	FinalAmount    int64                `json:"final_amount" example:"900"`
	Replayed       bool                 `json:"replayed,omitempty" example:"false"`
}

// RedemptionItemResponse 引き換え履歴アイテム
// @Description 引き換え履歴アイテム
type RedemptionItemResponse struct {
	UsageID        string    `json:"usage_id" example:"4a1f0b9e-0c7a-4a3e-9f2d-1b8a6c5d4e3f"`
	DiscountCodeID int64     `json:"discount_code_id" example:"1"`
	OrderNo        string    `json:"order_no" example:"ORD-20260831-0001"`
	DiscountAmount int64     `json:"discount_amount" example:"100"`
	BonusCredits   int64     `json:"bonus_credits" example:"0"`
	UsedAt         time.Time `json:"used_at"`
}

// RedemptionListResponse 引き換え履歴一覧レスポンス
// @Description 引き換え履歴一覧レスポンス
type RedemptionListResponse struct {
	Redemptions []RedemptionItemResponse `json:"redemptions"`
	Limit       int                      `json:"limit" example:"50"`
	Offset      int                      `json:"offset" example:"0"`
}
