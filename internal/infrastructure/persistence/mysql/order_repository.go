package mysql

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"promo-server/internal/domain/order"
)

// OrderRepository MySQL実装のOrderRepository（読み取り専用）
type OrderRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewOrderRepository 新しいOrderRepositoryを作成
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{
		db:     db,
		tracer: otel.Tracer("order-repository"),
	}
}

// HasPaidOrder 指定商品の支払い済み注文が存在するかチェック
func (r *OrderRepository) HasPaidOrder(ctx context.Context, userUUID, productID string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.HasPaidOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_uuid", userUUID),
		attribute.String("db.product_id", productID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "orders"),
	)

	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE user_uuid = ? AND product_id = ? AND status = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userUUID, productID, order.OrderStatusPaid.String()).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to count paid orders: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", count))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("has paid order: %v", count > 0))
	return count > 0, nil
}
