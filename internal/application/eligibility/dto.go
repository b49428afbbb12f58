package eligibility

// CheckRequest 初回購入特典の適格性チェックリクエスト
type CheckRequest struct {
	UserUUID string
}

// CheckResponse 初回購入特典の適格性チェックレスポンス
// Eligibleは参考値であり、最終的な二重付与防止は注文作成時の一意制約が担う
type CheckResponse struct {
	UserUUID  string
	ProductID string
	Eligible  bool
}
