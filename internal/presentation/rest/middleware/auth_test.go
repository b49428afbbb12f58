package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"promo-server/internal/infrastructure/config"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

const testJWTSecret = "test-secret"

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		authHeader func(t *testing.T) string
		wantStatus int
		wantUUID   string
	}{
		{
			name: "正常系: 有効なトークン",
			authHeader: func(t *testing.T) string {
				return "Bearer " + signTestToken(t, jwt.MapClaims{
					"user_uuid": "user-1",
					"exp":       time.Now().Add(time.Hour).Unix(),
				})
			},
			wantStatus: http.StatusOK,
			wantUUID:   "user-1",
		},
		{
			name: "異常系: Authorizationヘッダーがない",
			authHeader: func(t *testing.T) string {
				return ""
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: Bearer形式ではない",
			authHeader: func(t *testing.T) string {
				return "Basic abc123"
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 署名が不正",
			authHeader: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"user_uuid": "user-1",
				})
				signed, err := token.SignedString([]byte("wrong-secret"))
				require.NoError(t, err)
				return "Bearer " + signed
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 期限切れトークン",
			authHeader: func(t *testing.T) string {
				return "Bearer " + signTestToken(t, jwt.MapClaims{
					"user_uuid": "user-1",
					"exp":       time.Now().Add(-time.Hour).Unix(),
				})
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: user_uuidクレームがない",
			authHeader: func(t *testing.T) string {
				return "Bearer " + signTestToken(t, jwt.MapClaims{
					"exp": time.Now().Add(time.Hour).Unix(),
				})
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer := noop.NewTracerProvider().Tracer("test")
			logger := otelinfra.NewLogger(tracer)
			cfg := &config.JWTConfig{Secret: testJWTSecret}

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", nil)
			if header := tt.authHeader(t); header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			mw := AuthMiddleware(cfg, logger)
			handler := mw(func(c echo.Context) error {
				if tt.wantUUID != "" {
					assert.Equal(t, tt.wantUUID, c.Get("user_uuid"))
				}
				return c.String(http.StatusOK, "ok")
			})

			err := handler(c)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
