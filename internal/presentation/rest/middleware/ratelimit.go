package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"promo-server/internal/infrastructure/config"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

// limiterStore キーごとのトークンバケットを保持する
// アイドル状態のエントリは定期的に破棄される
type limiterStore struct {
	mu       sync.Mutex
	entries  map[string]*limiterEntry
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	return &limiterStore{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
		stop:    make(chan struct{}),
	}
}

// startCleanup アイドルエントリの定期破棄を開始する
// close()が呼ばれるまでバックグラウンドで動作する
func (s *limiterStore) startCleanup(interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.cleanup()
			case <-s.stop:
				return
			}
		}
	}()
}

// close クリーンアップゴルーチンを停止する
func (s *limiterStore) close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *limiterStore) cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// RateLimitMiddleware 引き換えエンドポイント向けのレートリミットミドルウェア
// 認証済みの場合はuser_uuid、未認証の場合はクライアントIPをキーとする
func RateLimitMiddleware(cfg *config.RateLimitConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	// 無効時はストアもクリーンアップゴルーチンも作らない
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	store := newLimiterStore(cfg.RequestsPerSecond, cfg.Burst)
	store.startCleanup(2 * time.Minute)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get("user_uuid").(string)
			if key == "" {
				key = getClientIP(c)
			}

			if !store.get(key).Allow() {
				logger.Warn(c.Request().Context(), "Rate limit exceeded", map[string]interface{}{
					"key": key,
				})
				return c.JSON(http.StatusTooManyRequests, newErrorResponse("Too many requests"))
			}

			return next(c)
		}
	}
}
