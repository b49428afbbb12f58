package discount_code

import "errors"

var (
	// ErrCodeNotFound 割引コードが見つからないエラー
	ErrCodeNotFound = errors.New("code not found")
	// ErrCodeInactive 割引コードが無効化されているエラー
	ErrCodeInactive = errors.New("code disabled")
	// ErrCodeNotYetValid 割引コードの有効期間が始まっていないエラー
	ErrCodeNotYetValid = errors.New("code not yet valid")
	// ErrCodeExpired 割引コードが期限切れエラー
	ErrCodeExpired = errors.New("code expired")
	// ErrProductNotApplicable 対象商品ではないエラー
	ErrProductNotApplicable = errors.New("code not applicable to this product")
	// ErrAmountBelowMinimum 注文金額が最低金額に満たないエラー
	ErrAmountBelowMinimum = errors.New("order amount below minimum")
	// ErrCodeExhausted 割引コードの使用上限に達しているエラー
	ErrCodeExhausted = errors.New("code exhausted")
	// ErrUserLimitReached ユーザーごとの使用上限に達しているエラー
	ErrUserLimitReached = errors.New("per-user limit reached")
	// ErrUsageConflict 同時実行によりused_countの条件付き更新が競合したエラー
	ErrUsageConflict = errors.New("usage counter conflict")
	// ErrConflictRetriesExhausted 競合リトライの上限に達したエラー
	ErrConflictRetriesExhausted = errors.New("concurrency conflict: retries exhausted")
	// ErrDuplicateOrderUsage 同じ注文番号の使用記録が既に存在するエラー
	ErrDuplicateOrderUsage = errors.New("order already has a redemption")
	// ErrUsageNotFound 使用記録が見つからないエラー
	ErrUsageNotFound = errors.New("usage not found")
	// ErrCodeAlreadyExists 割引コードが既に存在するエラー
	ErrCodeAlreadyExists = errors.New("code already exists")
	// ErrCodeHasUsages 使用実績のある割引コードは削除できないエラー
	ErrCodeHasUsages = errors.New("code has usages and cannot be deleted")
)
