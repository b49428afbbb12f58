package handler

// EligibilityResponse 新規ユーザー特典の資格確認レスポンス
// @Description 新規ユーザー特典の資格確認レスポンス
type EligibilityResponse struct {
	UserUUID  string `json:"user_uuid" example:"4a1f0b9e-0c7a-4a3e-9f2d-1b8a6c5d4e3f"`
	ProductID string `json:"product_id" example:"newcomer-trial"`
	Eligible  bool   `json:"eligible" example:"true"`
}
