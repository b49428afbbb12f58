package discount

import (
	"time"

	"promo-server/internal/domain/discount_code"
)

// ValidateRequest 割引コード検証リクエスト（ドライラン）
type ValidateRequest struct {
	Code      string
	ProductID string
	Amount    int64
	UserUUID  string
}

// ConsumeRequest 割引コード引き換えリクエスト（注文確定時）
type ConsumeRequest struct {
	Code      string
	ProductID string
	Amount    int64
	UserUUID  string
	OrderNo   string
}

// CodeSummary 検証結果に含める割引コードの概要
type CodeSummary struct {
	Code         string
	DiscountType string
	Value        int64
}

// ValidationResult 割引コード検証・引き換え結果
// ビジネスルール違反はValid=falseの結果として返し、エラーにはしない
type ValidationResult struct {
	Valid          bool
	Message        string
	Reason         string // 失敗理由の識別子（例: "code_exhausted"）
	Code           *CodeSummary
	DiscountAmount int64
	BonusCredits   int64
	FinalAmount    int64
	Replayed       bool // 同一注文番号の再送に対する冪等応答
}

// CreateCodeRequest 割引コード作成リクエスト
type CreateCodeRequest struct {
	Code         string
	DiscountType string
	Value        int64
	MinAmount    int64
	MaxUses      int
	ValidFrom    time.Time
	ValidUntil   time.Time
	ProductIDs   []string
	UserLimit    int
}

// CodeResponse 割引コードレスポンス
type CodeResponse struct {
	ID           int64
	Code         string
	DiscountType string
	Value        int64
	MinAmount    int64
	MaxUses      int
	UsedCount    int
	ValidFrom    time.Time
	ValidUntil   time.Time
	ProductIDs   []string
	UserLimit    int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetCodeRequest 割引コード取得リクエスト
type GetCodeRequest struct {
	Code string
}

// DeleteCodeRequest 割引コード削除リクエスト
type DeleteCodeRequest struct {
	Code string
}

// DeleteCodeResponse 割引コード削除レスポンス
type DeleteCodeResponse struct {
	Code      string
	DeletedAt time.Time
}

// ListCodesRequest 割引コード一覧取得リクエスト
type ListCodesRequest struct {
	Limit        int
	Offset       int
	DiscountType string // optional: "percentage", "fixed", "credits"
	ActiveOnly   bool
}

// ListCodesResponse 割引コード一覧取得レスポンス
type ListCodesResponse struct {
	Codes  []*CodeResponse
	Total  int
	Limit  int
	Offset int
}

// ListRedemptionsRequest ユーザーの引き換え履歴取得リクエスト
type ListRedemptionsRequest struct {
	UserUUID string
	Limit    int
	Offset   int
}

// RedemptionItem 引き換え履歴アイテム
type RedemptionItem struct {
	UsageID        string
	DiscountCodeID int64
	OrderNo        string
	DiscountAmount int64
	BonusCredits   int64
	UsedAt         time.Time
}

// ListRedemptionsResponse ユーザーの引き換え履歴取得レスポンス
type ListRedemptionsResponse struct {
	Redemptions []*RedemptionItem
	Limit       int
	Offset      int
}

// newCodeResponse エンティティからCodeResponseを作成
func newCodeResponse(dc *discount_code.DiscountCode) *CodeResponse {
	return &CodeResponse{
		ID:           dc.ID(),
		Code:         dc.Code(),
		DiscountType: dc.DiscountType().String(),
		Value:        dc.Value(),
		MinAmount:    dc.MinAmount(),
		MaxUses:      dc.MaxUses(),
		UsedCount:    dc.UsedCount(),
		ValidFrom:    dc.ValidFrom(),
		ValidUntil:   dc.ValidUntil(),
		ProductIDs:   dc.ProductIDs(),
		UserLimit:    dc.UserLimit(),
		IsActive:     dc.IsActive(),
		CreatedAt:    dc.CreatedAt(),
		UpdatedAt:    dc.UpdatedAt(),
	}
}
