package order

import (
	"context"
)

// OrderRepository 注文リポジトリインターフェース（読み取り専用）
// 初回購入特典の二重付与防止は、注文作成側の支払い済み特典注文に対する
// 一意制約で担保される。引き換えは注文作成中に行われ、その時点で注文行は
// まだ存在しないため、注文番号による参照は提供しない。
type OrderRepository interface {
	// HasPaidOrder 指定商品の支払い済み注文が存在するかチェック
	HasPaidOrder(ctx context.Context, userUUID, productID string) (bool, error)
}
