package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"promo-server/internal/domain/discount_code"
)

// mysqlErrDuplicateEntry MySQLの一意制約違反エラーコード
const mysqlErrDuplicateEntry = 1062

// DiscountCodeRepository MySQL実装のDiscountCodeRepository
type DiscountCodeRepository struct {
	db        *DB
	txManager *TransactionManager
	tracer    trace.Tracer
}

// NewDiscountCodeRepository 新しいDiscountCodeRepositoryを作成
func NewDiscountCodeRepository(db *DB, txManager *TransactionManager) *DiscountCodeRepository {
	return &DiscountCodeRepository{
		db:        db,
		txManager: txManager,
		tracer:    otel.Tracer("discount-code-repository"),
	}
}

const discountCodeColumns = `
	id, code, discount_type, value, min_amount,
	max_uses, used_count, valid_from, valid_until,
	product_ids, user_limit, is_active, created_at, updated_at
`

// FindByCode コードで割引コードを取得（大文字小文字を区別しない）
func (r *DiscountCodeRepository) FindByCode(ctx context.Context, code string) (*discount_code.DiscountCode, error) {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.FindByCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.code", code),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "discount_codes"),
	)

	query := `
		SELECT ` + discountCodeColumns + `
		FROM discount_codes
		WHERE UPPER(code) = UPPER(?)
	`

	dc, err := r.scanCode(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "discount code not found")
		return nil, discount_code.ErrCodeNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "discount code found")
	return dc, nil
}

// FindByID IDで割引コードを取得
func (r *DiscountCodeRepository) FindByID(ctx context.Context, id int64) (*discount_code.DiscountCode, error) {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.id", id),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "discount_codes"),
	)

	query := `
		SELECT ` + discountCodeColumns + `
		FROM discount_codes
		WHERE id = ?
	`

	dc, err := r.scanCode(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "discount code not found")
		return nil, discount_code.ErrCodeNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "discount code found")
	return dc, nil
}

// AtomicConsume used_countの条件付きインクリメントと使用記録の挿入を
// 同一トランザクションで実行する
// used_countが期待値と一致しない場合はErrUsageConflict、
// 注文番号の一意制約違反の場合はErrDuplicateOrderUsageを返す
func (r *DiscountCodeRepository) AtomicConsume(ctx context.Context, codeID int64, expectedUsedCount int, usage *discount_code.DiscountUsage) error {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.AtomicConsume")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.code_id", codeID),
		attribute.Int("db.expected_used_count", expectedUsedCount),
		attribute.String("db.order_no", usage.OrderNo()),
		attribute.String("db.operation", "UPDATE+INSERT"),
	)

	err := r.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		updateQuery := `
			UPDATE discount_codes
			SET used_count = used_count + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND used_count = ?
		`

		result, err := tx.ExecContext(ctx, updateQuery, codeID, expectedUsedCount)
		if err != nil {
			return fmt.Errorf("failed to increment used_count: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return discount_code.ErrUsageConflict
		}

		insertQuery := `
			INSERT INTO discount_code_usages (
				usage_id, discount_code_id, user_uuid, order_no,
				discount_amount, bonus_credits, used_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`

		_, err = tx.ExecContext(ctx, insertQuery,
			usage.UsageID(),
			usage.DiscountCodeID(),
			usage.UserUUID(),
			usage.OrderNo(),
			usage.DiscountAmount(),
			usage.BonusCredits(),
			usage.UsedAt(),
		)
		if err != nil {
			var mysqlErr *gomysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
				return discount_code.ErrDuplicateOrderUsage
			}
			return fmt.Errorf("failed to insert usage: %w", err)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, discount_code.ErrUsageConflict) || errors.Is(err, discount_code.ErrDuplicateOrderUsage) {
			span.SetStatus(otelcodes.Ok, err.Error())
			return err
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	span.SetStatus(otelcodes.Ok, "discount code consumed")
	return nil
}

// CountUsages コードとユーザーの組み合わせの使用記録数を取得
func (r *DiscountCodeRepository) CountUsages(ctx context.Context, codeID int64, userUUID string) (int, error) {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.CountUsages")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("db.code_id", codeID),
		attribute.String("db.user_uuid", userUUID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "discount_code_usages"),
	)

	query := `
		SELECT COUNT(*)
		FROM discount_code_usages
		WHERE discount_code_id = ? AND user_uuid = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, codeID, userUUID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to count usages: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", count))
	span.SetStatus(otelcodes.Ok, "usages counted")
	return count, nil
}

// FindUsageByOrderNo 注文番号で使用記録を取得
func (r *DiscountCodeRepository) FindUsageByOrderNo(ctx context.Context, orderNo string) (*discount_code.DiscountUsage, error) {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.FindUsageByOrderNo")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_no", orderNo),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "discount_code_usages"),
	)

	query := `
		SELECT usage_id, discount_code_id, user_uuid, order_no,
			discount_amount, bonus_credits, used_at
		FROM discount_code_usages
		WHERE order_no = ?
	`

	usage, err := scanUsage(r.db.QueryRowContext(ctx, query, orderNo))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "usage not found")
		return nil, discount_code.ErrUsageNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "usage found")
	return usage, nil
}

// FindUsagesByUser ユーザーの使用記録一覧を取得
func (r *DiscountCodeRepository) FindUsagesByUser(ctx context.Context, userUUID string, limit, offset int) ([]*discount_code.DiscountUsage, error) {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.FindUsagesByUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_uuid", userUUID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "discount_code_usages"),
	)

	query := `
		SELECT usage_id, discount_code_id, user_uuid, order_no,
			discount_amount, bonus_credits, used_at
		FROM discount_code_usages
		WHERE user_uuid = ?
		ORDER BY used_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, userUUID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find usages: %w", err)
	}
	defer rows.Close()

	var usages []*discount_code.DiscountUsage
	for rows.Next() {
		usage, err := scanUsage(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		usages = append(usages, usage)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate usages: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", len(usages)))
	span.SetStatus(otelcodes.Ok, "usages found")
	return usages, nil
}

// Create 割引コードを作成
func (r *DiscountCodeRepository) Create(ctx context.Context, dc *discount_code.DiscountCode) error {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.code", dc.Code()),
		attribute.String("db.discount_type", dc.DiscountType().String()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "discount_codes"),
	)

	query := `
		INSERT INTO discount_codes (
			code, discount_type, value, min_amount,
			max_uses, used_count, valid_from, valid_until,
			product_ids, user_limit, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		dc.Code(),
		dc.DiscountType().String(),
		dc.Value(),
		dc.MinAmount(),
		dc.MaxUses(),
		dc.UsedCount(),
		dc.ValidFrom(),
		dc.ValidUntil(),
		joinProductIDs(dc.ProductIDs()),
		dc.UserLimit(),
		dc.IsActive(),
	)
	if err != nil {
		var mysqlErr *gomysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			span.SetStatus(otelcodes.Ok, "discount code already exists")
			return discount_code.ErrCodeAlreadyExists
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create discount code: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	dc.SetID(id)

	span.SetAttributes(attribute.Int64("db.id", id))
	span.SetStatus(otelcodes.Ok, "discount code created")
	return nil
}

// FindAll 割引コードの一覧を取得
func (r *DiscountCodeRepository) FindAll(ctx context.Context, limit, offset int) ([]*discount_code.DiscountCode, int, error) {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.FindAll")
	defer span.End()

	span.SetAttributes(
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "discount_codes"),
	)

	var total int
	countQuery := `SELECT COUNT(*) FROM discount_codes`
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to count discount codes: %w", err)
	}

	query := `
		SELECT ` + discountCodeColumns + `
		FROM discount_codes
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to find discount codes: %w", err)
	}
	defer rows.Close()

	var codes []*discount_code.DiscountCode
	for rows.Next() {
		dc, err := r.scanCode(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, 0, err
		}
		codes = append(codes, dc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, 0, fmt.Errorf("failed to iterate discount codes: %w", err)
	}

	span.SetAttributes(
		attribute.Int("db.count", len(codes)),
		attribute.Int("db.total", total),
	)
	span.SetStatus(otelcodes.Ok, "discount codes found")
	return codes, total, nil
}

// Delete 割引コードを削除
// 使用実績があるコードは監査証跡を保つため削除できない
func (r *DiscountCodeRepository) Delete(ctx context.Context, code string) error {
	ctx, span := r.tracer.Start(ctx, "DiscountCodeRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.code", code),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "discount_codes"),
	)

	var usageCount int
	usageQuery := `
		SELECT COUNT(*)
		FROM discount_code_usages u
		JOIN discount_codes c ON c.id = u.discount_code_id
		WHERE UPPER(c.code) = UPPER(?)
	`
	if err := r.db.QueryRowContext(ctx, usageQuery, code).Scan(&usageCount); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to count usages: %w", err)
	}
	if usageCount > 0 {
		span.SetStatus(otelcodes.Ok, "discount code has usages")
		return discount_code.ErrCodeHasUsages
	}

	query := `DELETE FROM discount_codes WHERE UPPER(code) = UPPER(?)`

	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete discount code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Ok, "discount code not found")
		return discount_code.ErrCodeNotFound
	}

	span.SetStatus(otelcodes.Ok, "discount code deleted")
	return nil
}

// rowScanner sql.Rowとsql.Rowsの共通インターフェース
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCode 行から割引コードエンティティを再構築する
func (r *DiscountCodeRepository) scanCode(row rowScanner) (*discount_code.DiscountCode, error) {
	var id int64
	var code, dbDiscountType string
	var value, minAmount int64
	var maxUses, usedCount, userLimit int
	var validFrom, validUntil time.Time
	var productIDs sql.NullString
	var isActive bool
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&id,
		&code,
		&dbDiscountType,
		&value,
		&minAmount,
		&maxUses,
		&usedCount,
		&validFrom,
		&validUntil,
		&productIDs,
		&userLimit,
		&isActive,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan discount code: %w", err)
	}

	discountType, err := discount_code.NewDiscountType(dbDiscountType)
	if err != nil {
		return nil, fmt.Errorf("invalid discount type: %w", err)
	}

	dc, err := discount_code.NewDiscountCode(
		code,
		discountType,
		value,
		minAmount,
		maxUses,
		validFrom,
		validUntil,
		splitProductIDs(productIDs),
		userLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild discount code: %w", err)
	}

	dc.SetID(id)
	dc.SetUsedCount(usedCount)
	dc.SetActive(isActive)
	dc.SetTimestamps(createdAt, updatedAt)

	return dc, nil
}

// scanUsage 行から使用記録エンティティを再構築する
func scanUsage(row rowScanner) (*discount_code.DiscountUsage, error) {
	var usageID, userUUID, orderNo string
	var discountCodeID, discountAmount, bonusCredits int64
	var usedAt time.Time

	err := row.Scan(
		&usageID,
		&discountCodeID,
		&userUUID,
		&orderNo,
		&discountAmount,
		&bonusCredits,
		&usedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan usage: %w", err)
	}

	usage := discount_code.NewDiscountUsage(usageID, discountCodeID, userUUID, orderNo, discountAmount, bonusCredits)
	usage.SetUsedAt(usedAt)
	return usage, nil
}

// joinProductIDs 対象商品IDリストをカンマ区切りの文字列に変換する
// 空の場合はNULL（全商品対象）
func joinProductIDs(ids []string) sql.NullString {
	if len(ids) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.Join(ids, ","), Valid: true}
}

// splitProductIDs カンマ区切りの文字列を対象商品IDリストに変換する
func splitProductIDs(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return strings.Split(ns.String, ",")
}
