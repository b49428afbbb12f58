package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 検証回数
	ValidationCount metric.Int64Counter

	// 引き換え回数
	RedemptionCount metric.Int64Counter

	// used_count更新の競合件数
	ConflictCount metric.Int64Counter

	// 重複注文の再生件数
	ReplayCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	validationCount, err := meter.Int64Counter(
		"discount_validations_total",
		metric.WithDescription("Total number of discount code validations"),
	)
	if err != nil {
		return nil, err
	}

	redemptionCount, err := meter.Int64Counter(
		"discount_redemptions_total",
		metric.WithDescription("Total number of discount code redemptions"),
	)
	if err != nil {
		return nil, err
	}

	conflictCount, err := meter.Int64Counter(
		"discount_consume_conflicts_total",
		metric.WithDescription("Total number of used_count update conflicts"),
	)
	if err != nil {
		return nil, err
	}

	replayCount, err := meter.Int64Counter(
		"discount_replays_total",
		metric.WithDescription("Total number of replayed redemptions for duplicate orders"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ValidationCount: validationCount,
		RedemptionCount: redemptionCount,
		ConflictCount:   conflictCount,
		ReplayCount:     replayCount,
		RequestCount:    requestCount,
		ResponseTime:    responseTime,
		ErrorCount:      errorCount,
	}, nil
}

// RecordValidation 検証結果を記録
func (m *Metrics) RecordValidation(ctx context.Context, valid bool, reason string) {
	attrs := []attribute.KeyValue{
		attribute.Bool("valid", valid),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	m.ValidationCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRedemption 引き換えを記録
func (m *Metrics) RecordRedemption(ctx context.Context, discountType string) {
	m.RedemptionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("discount_type", discountType),
		),
	)
}

// RecordConflict used_count更新の競合を記録
func (m *Metrics) RecordConflict(ctx context.Context, code string) {
	m.ConflictCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("code", code),
		),
	)
}

// RecordReplay 重複注文の再生を記録
func (m *Metrics) RecordReplay(ctx context.Context, code string) {
	m.ReplayCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("code", code),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
