package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"promo-server/internal/domain/discount_code"
	"promo-server/internal/infrastructure/config"
)

// RedisCodeCache 割引コードの参照キャッシュのRedis実装
// ドライラン検証の読み取り負荷を軽減するためのもので、
// 引き換え時の判定には使用されない
type RedisCodeCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCodeCache 新しいRedisCodeCacheを作成
func NewRedisCodeCache(cfg *config.RedisConfig) (*RedisCodeCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisCodeCache{
		rdb:    rdb,
		prefix: "promo:code",
		ttl:    cfg.CacheTTL,
	}, nil
}

// cachedCode キャッシュ格納用のJSON表現
type cachedCode struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	DiscountType string    `json:"discount_type"`
	Value        int64     `json:"value"`
	MinAmount    int64     `json:"min_amount"`
	MaxUses      int       `json:"max_uses"`
	UsedCount    int       `json:"used_count"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until"`
	ProductIDs   []string  `json:"product_ids,omitempty"`
	UserLimit    int       `json:"user_limit"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// key コードからキャッシュキーを作成（大文字小文字を区別しない）
func (c *RedisCodeCache) key(code string) string {
	return c.prefix + ":" + strings.ToUpper(code)
}

// Get キャッシュから割引コードを取得（存在しない場合はnil）
func (c *RedisCodeCache) Get(ctx context.Context, code string) (*discount_code.DiscountCode, error) {
	data, err := c.rdb.Get(ctx, c.key(code)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached code: %w", err)
	}

	var cc cachedCode
	if err := json.Unmarshal(data, &cc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached code: %w", err)
	}

	discountType, err := discount_code.NewDiscountType(cc.DiscountType)
	if err != nil {
		return nil, fmt.Errorf("invalid cached discount type: %w", err)
	}

	dc, err := discount_code.NewDiscountCode(
		cc.Code,
		discountType,
		cc.Value,
		cc.MinAmount,
		cc.MaxUses,
		cc.ValidFrom,
		cc.ValidUntil,
		cc.ProductIDs,
		cc.UserLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild cached code: %w", err)
	}

	dc.SetID(cc.ID)
	dc.SetUsedCount(cc.UsedCount)
	dc.SetActive(cc.IsActive)
	dc.SetTimestamps(cc.CreatedAt, cc.UpdatedAt)

	return dc, nil
}

// Set 割引コードをキャッシュに保存
func (c *RedisCodeCache) Set(ctx context.Context, dc *discount_code.DiscountCode) error {
	cc := cachedCode{
		ID:           dc.ID(),
		Code:         dc.Code(),
		DiscountType: dc.DiscountType().String(),
		Value:        dc.Value(),
		MinAmount:    dc.MinAmount(),
		MaxUses:      dc.MaxUses(),
		UsedCount:    dc.UsedCount(),
		ValidFrom:    dc.ValidFrom(),
		ValidUntil:   dc.ValidUntil(),
		ProductIDs:   dc.ProductIDs(),
		UserLimit:    dc.UserLimit(),
		IsActive:     dc.IsActive(),
		CreatedAt:    dc.CreatedAt(),
		UpdatedAt:    dc.UpdatedAt(),
	}

	data, err := json.Marshal(cc)
	if err != nil {
		return fmt.Errorf("failed to marshal code for cache: %w", err)
	}

	if err := c.rdb.Set(ctx, c.key(dc.Code()), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached code: %w", err)
	}
	return nil
}

// Invalidate キャッシュエントリを削除
func (c *RedisCodeCache) Invalidate(ctx context.Context, code string) error {
	if err := c.rdb.Del(ctx, c.key(code)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached code: %w", err)
	}
	return nil
}

// Close Redis接続を閉じる
func (c *RedisCodeCache) Close() error {
	return c.rdb.Close()
}
