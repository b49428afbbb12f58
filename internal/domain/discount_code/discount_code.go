package discount_code

import (
	"errors"
	"strings"
	"time"
)

// DiscountCode 割引コードエンティティ
type DiscountCode struct {
	id           int64
	code         string
	discountType DiscountType
	value        int64          // percentage: パーセント値 / fixed, credits: 最小通貨単位
	minAmount    int64          // 0 = 最低注文金額なし
	maxUses      int            // 0 = 無制限
	usedCount    int
	validFrom    time.Time
	validUntil   time.Time
	productIDs   []string       // 空 = 全商品対象
	userLimit    int            // 0 = ユーザーごとの上限なし
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewDiscountCode 新しいDiscountCodeエンティティを作成
func NewDiscountCode(
	code string,
	discountType DiscountType,
	value int64,
	minAmount int64,
	maxUses int,
	validFrom time.Time,
	validUntil time.Time,
	productIDs []string,
	userLimit int,
) (*DiscountCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("invalid code")
	}
	if !discountType.Valid() {
		return nil, errors.New("invalid discount type")
	}
	if value <= 0 {
		return nil, errors.New("invalid value")
	}
	if discountType == DiscountTypePercentage && value > 100 {
		return nil, errors.New("percentage value must be at most 100")
	}
	if minAmount < 0 || maxUses < 0 || userLimit < 0 {
		return nil, errors.New("limits must be non-negative")
	}
	if validUntil.Before(validFrom) {
		return nil, errors.New("valid_until must be after valid_from")
	}

	now := time.Now()
	return &DiscountCode{
		code:         code,
		discountType: discountType,
		value:        value,
		minAmount:    minAmount,
		maxUses:      maxUses,
		usedCount:    0,
		validFrom:    validFrom,
		validUntil:   validUntil,
		productIDs:   productIDs,
		userLimit:    userLimit,
		isActive:     true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ID IDを返す
func (dc *DiscountCode) ID() int64 {
	return dc.id
}

// Code コードを返す
func (dc *DiscountCode) Code() string {
	return dc.code
}

// DiscountType 割引タイプを返す
func (dc *DiscountCode) DiscountType() DiscountType {
	return dc.discountType
}

// Value 割引値を返す
func (dc *DiscountCode) Value() int64 {
	return dc.value
}

// MinAmount 最低注文金額を返す
func (dc *DiscountCode) MinAmount() int64 {
	return dc.minAmount
}

// MaxUses 最大使用回数を返す
func (dc *DiscountCode) MaxUses() int {
	return dc.maxUses
}

// UsedCount 現在の使用回数を返す
func (dc *DiscountCode) UsedCount() int {
	return dc.usedCount
}

// ValidFrom 有効開始日時を返す
func (dc *DiscountCode) ValidFrom() time.Time {
	return dc.validFrom
}

// ValidUntil 有効期限を返す
func (dc *DiscountCode) ValidUntil() time.Time {
	return dc.validUntil
}

// ProductIDs 対象商品IDの一覧を返す
func (dc *DiscountCode) ProductIDs() []string {
	return dc.productIDs
}

// UserLimit ユーザーごとの使用上限を返す
func (dc *DiscountCode) UserLimit() int {
	return dc.userLimit
}

// IsActive 有効状態かどうかを返す
func (dc *DiscountCode) IsActive() bool {
	return dc.isActive
}

// CreatedAt 作成日時を返す
func (dc *DiscountCode) CreatedAt() time.Time {
	return dc.createdAt
}

// UpdatedAt 更新日時を返す
func (dc *DiscountCode) UpdatedAt() time.Time {
	return dc.updatedAt
}

// AppliesToProduct 対象商品かどうかをチェック（対象指定なしは全商品に適用）
func (dc *DiscountCode) AppliesToProduct(productID string) bool {
	if len(dc.productIDs) == 0 {
		return true
	}
	for _, id := range dc.productIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// CheckRedeemable 引き換え可能かをチェックし、最初に失敗した条件のエラーを返す
// チェック順序: 有効フラグ → 有効期間 → 対象商品 → 最低金額 → 使用上限
// （期間は両端を含む。使用上限チェックはここでは参考値で、確定はAtomicConsumeで行う）
func (dc *DiscountCode) CheckRedeemable(now time.Time, productID string, amount int64) error {
	if !dc.isActive {
		return ErrCodeInactive
	}
	if now.Before(dc.validFrom) {
		return ErrCodeNotYetValid
	}
	if now.After(dc.validUntil) {
		return ErrCodeExpired
	}
	if !dc.AppliesToProduct(productID) {
		return ErrProductNotApplicable
	}
	if dc.minAmount > 0 && amount < dc.minAmount {
		return ErrAmountBelowMinimum
	}
	if dc.maxUses > 0 && dc.usedCount >= dc.maxUses {
		return ErrCodeExhausted
	}
	return nil
}

// Apply 注文金額に対する割引額とボーナスクレジットを計算する
// percentage: amount * value / 100（amountを上限とする）
// fixed: min(value, amount)
// credits: 割引額0、value分のクレジット付与
func (dc *DiscountCode) Apply(amount int64) (discountAmount int64, bonusCredits int64) {
	switch dc.discountType {
	case DiscountTypePercentage:
		discountAmount = amount * dc.value / 100
		if discountAmount > amount {
			discountAmount = amount
		}
	case DiscountTypeFixed:
		discountAmount = dc.value
		if discountAmount > amount {
			discountAmount = amount
		}
	case DiscountTypeCredits:
		bonusCredits = dc.value
	}
	return discountAmount, bonusCredits
}

// Deactivate コードを無効化
func (dc *DiscountCode) Deactivate() {
	dc.isActive = false
	dc.updatedAt = time.Now()
}

// SetID IDを設定（リポジトリから読み込んだ際に使用）
func (dc *DiscountCode) SetID(id int64) {
	dc.id = id
}

// SetUsedCount 現在の使用回数を設定（リポジトリから読み込んだ際に使用）
func (dc *DiscountCode) SetUsedCount(count int) {
	dc.usedCount = count
}

// SetActive 有効フラグを設定（リポジトリから読み込んだ際に使用）
func (dc *DiscountCode) SetActive(active bool) {
	dc.isActive = active
}

// SetTimestamps 作成・更新日時を設定（リポジトリから読み込んだ際に使用）
func (dc *DiscountCode) SetTimestamps(createdAt, updatedAt time.Time) {
	dc.createdAt = createdAt
	dc.updatedAt = updatedAt
}

// MustNewDiscountCode テスト用ヘルパー: NewDiscountCodeを呼び出し、エラーが発生した場合はpanicする
func MustNewDiscountCode(
	code string,
	discountType DiscountType,
	value int64,
	minAmount int64,
	maxUses int,
	validFrom time.Time,
	validUntil time.Time,
	productIDs []string,
	userLimit int,
) *DiscountCode {
	dc, err := NewDiscountCode(code, discountType, value, minAmount, maxUses, validFrom, validUntil, productIDs, userLimit)
	if err != nil {
		panic(err)
	}
	return dc
}
