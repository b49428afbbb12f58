package order

// OrderStatus 注文ステータスを表す値オブジェクト
// 注文の作成・更新は外部の注文サービスが担い、このサブシステムは参照のみ行う
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // 支払い待ち
	OrderStatusPaid      OrderStatus = "paid"      // 支払い済み
	OrderStatusCancelled OrderStatus = "cancelled" // キャンセル
)

// String 文字列表現を返す
func (os OrderStatus) String() string {
	return string(os)
}

// IsPaid 支払い済みかどうかを返す
func (os OrderStatus) IsPaid() bool {
	return os == OrderStatusPaid
}
