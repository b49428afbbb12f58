package handler

import "time"

// AdminCreateCodeRequest 割引コード作成リクエスト
// @Description 割引コード作成リクエスト
type AdminCreateCodeRequest struct {
	Code         string    `json:"code" example:"SAVE10"`
	DiscountType string    `json:"discount_type" example:"percentage" enums:"percentage,fixed,credits"`
	Value        int64     `json:"value" example:"10"`
	MinAmount    int64     `json:"min_amount" example:"0"`
	MaxUses      int       `json:"max_uses" example:"100"`
	ValidFrom    time.Time `json:"valid_from" example:"2026-01-01T00:00:00Z"`
	ValidUntil   time.Time `json:"valid_until" example:"2026-12-31T23:59:59Z"`
	ProductIDs   []string  `json:"product_ids" example:"prod-001,prod-002"`
	UserLimit    int       `json:"user_limit" example:"1"`
}

// AdminCodeResponse 割引コードレスポンス
// @Description 割引コードレスポンス
type AdminCodeResponse struct {
	ID           int64     `json:"id" example:"1"`
	Code         string    `json:"code" example:"SAVE10"`
	DiscountType string    `json:"discount_type" example:"percentage"`
	Value        int64     `json:"value" example:"10"`
	MinAmount    int64     `json:"min_amount" example:"0"`
	MaxUses      int       `json:"max_uses" example:"100"`
	UsedCount    int       `json:"used_count" example:"3"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until"`
	ProductIDs   []string  `json:"product_ids"`
	UserLimit    int       `json:"user_limit" example:"1"`
	IsActive     bool      `json:"is_active" example:"true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AdminCodeListResponse 割引コード一覧レスポンス
// @Description 割引コード一覧レスポンス
type AdminCodeListResponse struct {
	Codes  []AdminCodeResponse `json:"codes"`
	Total  int                 `json:"total" example:"1"`
	Limit  int                 `json:"limit" example:"50"`
	Offset int                 `json:"offset" example:"0"`
}

// AdminDeleteCodeResponse 割引コード削除レスポンス
// @Description 割引コード削除レスポンス
type AdminDeleteCodeResponse struct {
	Code      string    `json:"code" example:"SAVE10"`
	DeletedAt time.Time `json:"deleted_at"`
}
