package discount

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"promo-server/internal/domain/discount_code"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

// maxBackoff 競合リトライ時の待機時間の上限
const maxBackoff = 100 * time.Millisecond

// CodeCache 割引コードの参照キャッシュインターフェース
// ドライラン検証の読み取り専用経路でのみ使用され、Consumeは常にリポジトリを直接読む
type CodeCache interface {
	Get(ctx context.Context, code string) (*discount_code.DiscountCode, error)
	Set(ctx context.Context, code *discount_code.DiscountCode) error
	Invalidate(ctx context.Context, code string) error
}

// DiscountApplicationService 割引コードアプリケーションサービス
type DiscountApplicationService struct {
	codeRepo   discount_code.DiscountCodeRepository
	cache      CodeCache // nil = キャッシュ無効
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
	maxRetries int
}

// NewDiscountApplicationService 新しいDiscountApplicationServiceを作成
func NewDiscountApplicationService(
	codeRepo discount_code.DiscountCodeRepository,
	cache CodeCache,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	maxRetries int,
) *DiscountApplicationService {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &DiscountApplicationService{
		codeRepo:   codeRepo,
		cache:      cache,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("discount-service"),
		maxRetries: maxRetries,
	}
}

// Validate 割引コードを検証する（ドライラン、状態を変更しない）
func (s *DiscountApplicationService) Validate(ctx context.Context, req *ValidateRequest) (*ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "DiscountApplicationService.Validate")
	defer span.End()

	span.SetAttributes(
		attribute.String("code", req.Code),
		attribute.String("product_id", req.ProductID),
		attribute.Int64("amount", req.Amount),
		attribute.String("user_uuid", req.UserUUID),
	)

	if err := validateEvaluationInput(req.Code, req.Amount, req.UserUUID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	code, err := s.lookupCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, discount_code.ErrCodeNotFound) {
			s.metrics.RecordValidation(ctx, false, reasonOf(err))
			return failureResult(err), nil
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find code: %w", err)
	}

	if ruleErr, err := s.checkLimits(ctx, code, req.ProductID, req.Amount, req.UserUUID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	} else if ruleErr != nil {
		s.metrics.RecordValidation(ctx, false, reasonOf(ruleErr))
		return failureResult(ruleErr), nil
	}

	result := successResult(code, req.Amount, false)
	s.metrics.RecordValidation(ctx, true, "")

	s.logger.Debug(ctx, "Discount code validated", map[string]interface{}{
		"code":            code.Code(),
		"discount_amount": result.DiscountAmount,
		"final_amount":    result.FinalAmount,
	})

	return result, nil
}

// Consume 割引コードを引き換える（唯一の状態変更エントリポイント）
// used_countに対する条件付き更新が競合した場合は検証からやり直し、
// リトライ上限に達した場合はErrConflictRetriesExhaustedを返す
func (s *DiscountApplicationService) Consume(ctx context.Context, req *ConsumeRequest) (*ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "DiscountApplicationService.Consume")
	defer span.End()

	span.SetAttributes(
		attribute.String("code", req.Code),
		attribute.String("product_id", req.ProductID),
		attribute.Int64("amount", req.Amount),
		attribute.String("user_uuid", req.UserUUID),
		attribute.String("order_no", req.OrderNo),
	)

	if err := validateEvaluationInput(req.Code, req.Amount, req.UserUUID); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if req.OrderNo == "" {
		err := fmt.Errorf("order_no is required")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	s.logger.Info(ctx, "Consuming discount code", map[string]interface{}{
		"code":     req.Code,
		"user":     req.UserUUID,
		"order_no": req.OrderNo,
	})

	// 同一注文番号の再送は元の結果を返す（冪等）
	if result, found, err := s.replayResult(ctx, req.OrderNo, req.Amount); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	} else if found {
		return result, nil
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			time.Sleep(backoff)
		}

		result, conflict, err := s.tryConsume(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		if conflict {
			s.metrics.RecordConflict(ctx, req.Code)
			continue
		}
		return result, nil
	}

	err := discount_code.ErrConflictRetriesExhausted
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.logger.Warn(ctx, "Consume retries exhausted", map[string]interface{}{
		"code":     req.Code,
		"order_no": req.OrderNo,
		"retries":  s.maxRetries,
	})
	s.metrics.RecordError(ctx, "consume_retries_exhausted")
	return nil, err
}

// tryConsume 1回分の検証+条件付き書き込みを実行する
// conflict=trueは呼び出し側でのリトライを要求する
func (s *DiscountApplicationService) tryConsume(ctx context.Context, req *ConsumeRequest) (result *ValidationResult, conflict bool, err error) {
	code, err := s.codeRepo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, discount_code.ErrCodeNotFound) {
			s.metrics.RecordValidation(ctx, false, reasonOf(err))
			return failureResult(err), false, nil
		}
		return nil, false, fmt.Errorf("failed to find code: %w", err)
	}

	if ruleErr, err := s.checkLimits(ctx, code, req.ProductID, req.Amount, req.UserUUID); err != nil {
		return nil, false, err
	} else if ruleErr != nil {
		s.metrics.RecordValidation(ctx, false, reasonOf(ruleErr))
		return failureResult(ruleErr), false, nil
	}

	discountAmount, bonusCredits := code.Apply(req.Amount)
	usage := discount_code.NewDiscountUsage(
		uuid.NewString(),
		code.ID(),
		req.UserUUID,
		req.OrderNo,
		discountAmount,
		bonusCredits,
	)

	err = s.codeRepo.AtomicConsume(ctx, code.ID(), code.UsedCount(), usage)
	switch {
	case err == nil:
		s.invalidateCache(ctx, code.Code())
		s.metrics.RecordRedemption(ctx, code.DiscountType().String())
		s.logger.Info(ctx, "Discount code consumed", map[string]interface{}{
			"code":            code.Code(),
			"order_no":        req.OrderNo,
			"discount_amount": discountAmount,
			"bonus_credits":   bonusCredits,
			"used_count":      code.UsedCount() + 1,
		})
		return successResult(code, req.Amount, false), false, nil

	case errors.Is(err, discount_code.ErrUsageConflict):
		return nil, true, nil

	case errors.Is(err, discount_code.ErrDuplicateOrderUsage):
		// 書き込み競合で別リクエストが同じ注文を先に記録した場合
		replay, found, replayErr := s.replayResult(ctx, req.OrderNo, req.Amount)
		if replayErr != nil {
			return nil, false, replayErr
		}
		if !found {
			return nil, false, fmt.Errorf("duplicate order usage but record not found: %s", req.OrderNo)
		}
		return replay, false, nil

	default:
		return nil, false, fmt.Errorf("failed to consume code: %w", err)
	}
}

// replayResult 注文番号に対する既存の使用記録から元の結果を再構築する
func (s *DiscountApplicationService) replayResult(ctx context.Context, orderNo string, amount int64) (*ValidationResult, bool, error) {
	usage, err := s.codeRepo.FindUsageByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, discount_code.ErrUsageNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find usage: %w", err)
	}

	code, err := s.codeRepo.FindByID(ctx, usage.DiscountCodeID())
	if err != nil {
		return nil, false, fmt.Errorf("failed to find code for usage: %w", err)
	}

	finalAmount := amount - usage.DiscountAmount()
	if finalAmount < 0 {
		finalAmount = 0
	}

	s.metrics.RecordReplay(ctx, code.Code())
	s.logger.Info(ctx, "Replayed redemption for order", map[string]interface{}{
		"code":     code.Code(),
		"order_no": orderNo,
	})

	return &ValidationResult{
		Valid:   true,
		Message: "discount applied",
		Code: &CodeSummary{
			Code:         code.Code(),
			DiscountType: code.DiscountType().String(),
			Value:        code.Value(),
		},
		DiscountAmount: usage.DiscountAmount(),
		BonusCredits:   usage.BonusCredits(),
		FinalAmount:    finalAmount,
		Replayed:       true,
	}, true, nil
}

// checkLimits エンティティの条件とユーザーごとの使用上限をチェックする
// ビジネスルール違反はruleErrに、ストレージ障害はerrに分けて返す
func (s *DiscountApplicationService) checkLimits(ctx context.Context, code *discount_code.DiscountCode, productID string, amount int64, userUUID string) (ruleErr error, err error) {
	if ruleErr := code.CheckRedeemable(time.Now(), productID, amount); ruleErr != nil {
		return ruleErr, nil
	}

	if code.UserLimit() > 0 {
		count, err := s.codeRepo.CountUsages(ctx, code.ID(), userUUID)
		if err != nil {
			return nil, fmt.Errorf("failed to count usages: %w", err)
		}
		if count >= code.UserLimit() {
			return discount_code.ErrUserLimitReached, nil
		}
	}

	return nil, nil
}

// lookupCode キャッシュ経由で割引コードを取得する（ドライラン専用）
func (s *DiscountApplicationService) lookupCode(ctx context.Context, codeStr string) (*discount_code.DiscountCode, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, codeStr)
		if err != nil {
			// キャッシュ障害は参照に影響させない
			s.logger.Warn(ctx, "Code cache read failed", map[string]interface{}{
				"code":  codeStr,
				"error": err.Error(),
			})
		} else if cached != nil {
			return cached, nil
		}
	}

	code, err := s.codeRepo.FindByCode(ctx, codeStr)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, code); err != nil {
			s.logger.Warn(ctx, "Code cache write failed", map[string]interface{}{
				"code":  codeStr,
				"error": err.Error(),
			})
		}
	}

	return code, nil
}

// invalidateCache キャッシュエントリを無効化する
func (s *DiscountApplicationService) invalidateCache(ctx context.Context, codeStr string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, codeStr); err != nil {
		s.logger.Warn(ctx, "Code cache invalidation failed", map[string]interface{}{
			"code":  codeStr,
			"error": err.Error(),
		})
	}
}

// CreateCode 割引コードを作成
func (s *DiscountApplicationService) CreateCode(ctx context.Context, req *CreateCodeRequest) (*CodeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DiscountApplicationService.CreateCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("code", req.Code),
		attribute.String("discount_type", req.DiscountType),
		attribute.Int64("value", req.Value),
	)

	s.logger.Info(ctx, "Creating discount code", map[string]interface{}{
		"code":          req.Code,
		"discount_type": req.DiscountType,
		"value":         req.Value,
		"max_uses":      req.MaxUses,
		"user_limit":    req.UserLimit,
	})

	discountType, err := discount_code.NewDiscountType(req.DiscountType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("invalid discount type: %w", err)
	}

	dc, err := discount_code.NewDiscountCode(
		req.Code,
		discountType,
		req.Value,
		req.MinAmount,
		req.MaxUses,
		req.ValidFrom,
		req.ValidUntil,
		req.ProductIDs,
		req.UserLimit,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to create discount code entity: %w", err)
	}

	if err := s.codeRepo.Create(ctx, dc); err != nil {
		if errors.Is(err, discount_code.ErrCodeAlreadyExists) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to create discount code", err, map[string]interface{}{
			"code": req.Code,
		})
		return nil, fmt.Errorf("failed to create discount code: %w", err)
	}

	s.invalidateCache(ctx, dc.Code())

	s.logger.Info(ctx, "Discount code created", map[string]interface{}{
		"code": dc.Code(),
	})

	return newCodeResponse(dc), nil
}

// GetCode 割引コードを取得
func (s *DiscountApplicationService) GetCode(ctx context.Context, req *GetCodeRequest) (*CodeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DiscountApplicationService.GetCode")
	defer span.End()

	span.SetAttributes(attribute.String("code", req.Code))

	if req.Code == "" {
		err := fmt.Errorf("code is required")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	code, err := s.codeRepo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, discount_code.ErrCodeNotFound) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find code: %w", err)
	}

	return newCodeResponse(code), nil
}

// ListCodes 割引コードの一覧を取得
func (s *DiscountApplicationService) ListCodes(ctx context.Context, req *ListCodesRequest) (*ListCodesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DiscountApplicationService.ListCodes")
	defer span.End()

	span.SetAttributes(
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
		attribute.String("discount_type", req.DiscountType),
	)

	// ページネーションパラメータのバリデーション
	if req.Limit <= 0 {
		req.Limit = 50 // デフォルト値
	}
	if req.Limit > 100 {
		req.Limit = 100 // 最大値
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	codes, total, err := s.codeRepo.FindAll(ctx, req.Limit, req.Offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to list discount codes", err, nil)
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}

	// フィルタリング（discount_type, active）
	filtered := make([]*CodeResponse, 0, len(codes))
	for _, code := range codes {
		if req.DiscountType != "" && code.DiscountType().String() != req.DiscountType {
			continue
		}
		if req.ActiveOnly && !code.IsActive() {
			continue
		}
		filtered = append(filtered, newCodeResponse(code))
	}

	return &ListCodesResponse{
		Codes:  filtered,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

// DeleteCode 割引コードを削除（使用実績がある場合は拒否）
func (s *DiscountApplicationService) DeleteCode(ctx context.Context, req *DeleteCodeRequest) (*DeleteCodeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DiscountApplicationService.DeleteCode")
	defer span.End()

	span.SetAttributes(attribute.String("code", req.Code))

	if req.Code == "" {
		err := fmt.Errorf("code is required")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := s.codeRepo.Delete(ctx, req.Code); err != nil {
		if errors.Is(err, discount_code.ErrCodeNotFound) || errors.Is(err, discount_code.ErrCodeHasUsages) {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to delete discount code", err, map[string]interface{}{
			"code": req.Code,
		})
		return nil, fmt.Errorf("failed to delete discount code: %w", err)
	}

	s.invalidateCache(ctx, req.Code)

	s.logger.Info(ctx, "Discount code deleted", map[string]interface{}{
		"code": req.Code,
	})

	return &DeleteCodeResponse{
		Code:      req.Code,
		DeletedAt: time.Now(),
	}, nil
}

// ListUserRedemptions ユーザーの引き換え履歴を取得
func (s *DiscountApplicationService) ListUserRedemptions(ctx context.Context, req *ListRedemptionsRequest) (*ListRedemptionsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "DiscountApplicationService.ListUserRedemptions")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_uuid", req.UserUUID),
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
	)

	if req.UserUUID == "" {
		err := fmt.Errorf("user_uuid is required")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	usages, err := s.codeRepo.FindUsagesByUser(ctx, req.UserUUID, req.Limit, req.Offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to list redemptions", err, map[string]interface{}{
			"user_uuid": req.UserUUID,
		})
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}

	items := make([]*RedemptionItem, 0, len(usages))
	for _, u := range usages {
		items = append(items, &RedemptionItem{
			UsageID:        u.UsageID(),
			DiscountCodeID: u.DiscountCodeID(),
			OrderNo:        u.OrderNo(),
			DiscountAmount: u.DiscountAmount(),
			BonusCredits:   u.BonusCredits(),
			UsedAt:         u.UsedAt(),
		})
	}

	return &ListRedemptionsResponse{
		Redemptions: items,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}, nil
}

// validateEvaluationInput 検証・引き換え共通の入力チェック
func validateEvaluationInput(code string, amount int64, userUUID string) error {
	if code == "" {
		return fmt.Errorf("code is required")
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if userUUID == "" {
		return fmt.Errorf("user_uuid is required")
	}
	return nil
}

// successResult 成功時のValidationResultを作成
func successResult(code *discount_code.DiscountCode, amount int64, replayed bool) *ValidationResult {
	discountAmount, bonusCredits := code.Apply(amount)
	finalAmount := amount - discountAmount
	if finalAmount < 0 {
		finalAmount = 0
	}
	return &ValidationResult{
		Valid:   true,
		Message: "discount applied",
		Code: &CodeSummary{
			Code:         code.Code(),
			DiscountType: code.DiscountType().String(),
			Value:        code.Value(),
		},
		DiscountAmount: discountAmount,
		BonusCredits:   bonusCredits,
		FinalAmount:    finalAmount,
		Replayed:       replayed,
	}
}

// failureResult ビジネスルール違反時のValidationResultを作成
func failureResult(ruleErr error) *ValidationResult {
	reason := reasonOf(ruleErr)
	return &ValidationResult{
		Valid:   false,
		Message: messageOf(ruleErr),
		Reason:  reason,
	}
}

// reasonOf ビジネスルール違反の識別子を返す
func reasonOf(err error) string {
	switch {
	case errors.Is(err, discount_code.ErrCodeNotFound):
		return "code_not_found"
	case errors.Is(err, discount_code.ErrCodeInactive):
		return "code_inactive"
	case errors.Is(err, discount_code.ErrCodeNotYetValid):
		return "code_not_yet_valid"
	case errors.Is(err, discount_code.ErrCodeExpired):
		return "code_expired"
	case errors.Is(err, discount_code.ErrProductNotApplicable):
		return "product_not_applicable"
	case errors.Is(err, discount_code.ErrAmountBelowMinimum):
		return "amount_below_minimum"
	case errors.Is(err, discount_code.ErrCodeExhausted):
		return "code_exhausted"
	case errors.Is(err, discount_code.ErrUserLimitReached):
		return "user_limit_reached"
	default:
		return "invalid"
	}
}

// messageOf 呼び出し側が表示に使える失敗メッセージを返す
func messageOf(err error) string {
	switch {
	case errors.Is(err, discount_code.ErrCodeNotFound):
		return "code does not exist"
	case errors.Is(err, discount_code.ErrCodeInactive):
		return "code disabled"
	case errors.Is(err, discount_code.ErrCodeNotYetValid):
		return "code not yet valid"
	case errors.Is(err, discount_code.ErrCodeExpired):
		return "code expired"
	case errors.Is(err, discount_code.ErrProductNotApplicable):
		return "not applicable to this product"
	case errors.Is(err, discount_code.ErrAmountBelowMinimum):
		return "order amount below minimum"
	case errors.Is(err, discount_code.ErrCodeExhausted):
		return "code exhausted"
	case errors.Is(err, discount_code.ErrUserLimitReached):
		return "per-user limit reached"
	default:
		return "code is not valid"
	}
}
