package discount_code

import (
	"context"
	"time"
)

// DiscountUsage 割引コード使用記録エンティティ（注文ごとに最大1件）
type DiscountUsage struct {
	usageID        string
	discountCodeID int64
	userUUID       string
	orderNo        string
	discountAmount int64
	bonusCredits   int64
	usedAt         time.Time
}

// NewDiscountUsage 新しいDiscountUsageエンティティを作成
func NewDiscountUsage(usageID string, discountCodeID int64, userUUID, orderNo string, discountAmount, bonusCredits int64) *DiscountUsage {
	return &DiscountUsage{
		usageID:        usageID,
		discountCodeID: discountCodeID,
		userUUID:       userUUID,
		orderNo:        orderNo,
		discountAmount: discountAmount,
		bonusCredits:   bonusCredits,
		usedAt:         time.Now(),
	}
}

// UsageID 使用記録IDを返す
func (du *DiscountUsage) UsageID() string {
	return du.usageID
}

// DiscountCodeID 割引コードIDを返す
func (du *DiscountUsage) DiscountCodeID() int64 {
	return du.discountCodeID
}

// UserUUID ユーザーUUIDを返す
func (du *DiscountUsage) UserUUID() string {
	return du.userUUID
}

// OrderNo 注文番号を返す
func (du *DiscountUsage) OrderNo() string {
	return du.orderNo
}

// DiscountAmount 割引額を返す
func (du *DiscountUsage) DiscountAmount() int64 {
	return du.discountAmount
}

// BonusCredits ボーナスクレジットを返す
func (du *DiscountUsage) BonusCredits() int64 {
	return du.bonusCredits
}

// UsedAt 使用日時を返す
func (du *DiscountUsage) UsedAt() time.Time {
	return du.usedAt
}

// SetUsedAt 使用日時を設定（リポジトリから読み込んだ際に使用）
func (du *DiscountUsage) SetUsedAt(t time.Time) {
	du.usedAt = t
}

// DiscountCodeRepository 割引コードリポジトリインターフェース
// used_countの更新はAtomicConsume経由のみ許可される
type DiscountCodeRepository interface {
	// FindByCode コードで割引コードを取得（大文字小文字を区別しない）
	FindByCode(ctx context.Context, code string) (*DiscountCode, error)

	// FindByID IDで割引コードを取得
	FindByID(ctx context.Context, id int64) (*DiscountCode, error)

	// AtomicConsume used_countがexpectedUsedCountと一致する場合のみインクリメントし、
	// 使用記録を同一トランザクションで挿入する
	// 競合時はErrUsageConflict、order_no重複時はErrDuplicateOrderUsageを返す
	AtomicConsume(ctx context.Context, codeID int64, expectedUsedCount int, usage *DiscountUsage) error

	// CountUsages コードとユーザーの組み合わせの使用記録数を取得
	CountUsages(ctx context.Context, codeID int64, userUUID string) (int, error)

	// FindUsageByOrderNo 注文番号で使用記録を取得
	FindUsageByOrderNo(ctx context.Context, orderNo string) (*DiscountUsage, error)

	// FindUsagesByUser ユーザーの使用記録一覧を取得
	FindUsagesByUser(ctx context.Context, userUUID string, limit, offset int) ([]*DiscountUsage, error)

	// Create 割引コードを作成
	Create(ctx context.Context, code *DiscountCode) error

	// FindAll 割引コードの一覧を取得
	FindAll(ctx context.Context, limit, offset int) ([]*DiscountCode, int, error)

	// Delete 割引コードを削除（使用実績がある場合はErrCodeHasUsages）
	Delete(ctx context.Context, code string) error
}
