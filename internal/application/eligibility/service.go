package eligibility

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"promo-server/internal/domain/order"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

// EligibilityApplicationService 初回購入特典の適格性チェックサービス
// チェック結果は表示用の参考値であり、購入確定時の真正な判定は
// 注文テーブルの一意制約によって行われる
type EligibilityApplicationService struct {
	orderRepo         order.OrderRepository
	logger            *otelinfra.Logger
	tracer            trace.Tracer
	newcomerProductID string
}

// NewEligibilityApplicationService 新しいEligibilityApplicationServiceを作成
func NewEligibilityApplicationService(
	orderRepo order.OrderRepository,
	logger *otelinfra.Logger,
	newcomerProductID string,
) *EligibilityApplicationService {
	return &EligibilityApplicationService{
		orderRepo:         orderRepo,
		logger:            logger,
		tracer:            otel.Tracer("eligibility-service"),
		newcomerProductID: newcomerProductID,
	}
}

// Check ユーザーが初回購入特典の対象かどうかをチェックする
func (s *EligibilityApplicationService) Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	ctx, span := s.tracer.Start(ctx, "EligibilityApplicationService.Check")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_uuid", req.UserUUID),
		attribute.String("product_id", s.newcomerProductID),
	)

	if req.UserUUID == "" {
		err := fmt.Errorf("user_uuid is required")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	hasPaid, err := s.orderRepo.HasPaidOrder(ctx, req.UserUUID, s.newcomerProductID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to check paid orders", err, map[string]interface{}{
			"user_uuid": req.UserUUID,
		})
		return nil, fmt.Errorf("failed to check paid orders: %w", err)
	}

	s.logger.Debug(ctx, "Newcomer eligibility checked", map[string]interface{}{
		"user_uuid": req.UserUUID,
		"eligible":  !hasPaid,
	})

	return &CheckResponse{
		UserUUID:  req.UserUUID,
		ProductID: s.newcomerProductID,
		Eligible:  !hasPaid,
	}, nil
}
