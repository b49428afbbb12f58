package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	discountapp "promo-server/internal/application/discount"
	eligibilityapp "promo-server/internal/application/eligibility"
	"promo-server/internal/infrastructure/config"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
	"promo-server/internal/infrastructure/persistence/mysql"
	"promo-server/internal/presentation/rest/handler"
	restmiddleware "promo-server/internal/presentation/rest/middleware"
)

// Router REST APIルーター
type Router struct {
	echo               *echo.Echo
	discountHandler    *handler.DiscountHandler
	eligibilityHandler *handler.EligibilityHandler
	adminHandler       *handler.AdminDiscountHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	db *mysql.DB,
	discountService *discountapp.DiscountApplicationService,
	eligibilityService *eligibilityapp.EligibilityApplicationService,
) (*Router, error) {
	e := echo.New()

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, cfg, logger, metrics)

	// ハンドラーの作成
	discountHandler := handler.NewDiscountHandler(discountService)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilityService)
	adminHandler := handler.NewAdminDiscountHandler(discountService)

	// ルーティングの設定
	setupRoutes(e, cfg, logger, db, discountHandler, eligibilityHandler, adminHandler)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return &Router{
		echo:               e,
		discountHandler:    discountHandler,
		eligibilityHandler: eligibilityHandler,
		adminHandler:       adminHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	db *mysql.DB,
	discountHandler *handler.DiscountHandler,
	eligibilityHandler *handler.EligibilityHandler,
	adminHandler *handler.AdminDiscountHandler,
) {
	// API v1グループ
	api := e.Group("/api/v1")

	// 認証が必要なエンドポイント
	authGroup := api.Group("", restmiddleware.AuthMiddleware(&cfg.JWT, logger))

	// 割引コード関連エンドポイント
	authGroup.POST("/discounts/validate", discountHandler.ValidateCode)
	authGroup.POST("/discounts/redeem", discountHandler.RedeemCode,
		restmiddleware.RateLimitMiddleware(&cfg.RateLimit, logger))

	// ユーザー関連エンドポイント
	authGroup.GET("/users/:user_uuid/newcomer-eligibility", eligibilityHandler.CheckNewcomerEligibility)
	authGroup.GET("/users/:user_uuid/redemptions", discountHandler.ListRedemptions)

	// 管理APIエンドポイント（APIキー認証）
	adminGroup := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	adminGroup.POST("/discounts", adminHandler.CreateCode)
	adminGroup.GET("/discounts", adminHandler.ListCodes)
	adminGroup.GET("/discounts/:code", adminHandler.GetCode)
	adminGroup.DELETE("/discounts/:code", adminHandler.DeleteCode)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		if db != nil {
			if err := db.HealthCheck(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown() error {
	return r.echo.Close()
}
