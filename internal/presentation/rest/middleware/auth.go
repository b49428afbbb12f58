package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"promo-server/internal/infrastructure/config"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

// AuthMiddleware JWT認証ミドルウェア
// 検証に成功した場合、user_uuidクレームをコンテキストに設定する
func AuthMiddleware(cfg *config.JWTConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return c.JSON(http.StatusUnauthorized, newErrorResponse("Missing authorization header"))
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(ctx, "Invalid authorization header format", nil)
				return c.JSON(http.StatusUnauthorized, newErrorResponse("Invalid authorization header format"))
			}

			tokenString := parts[1]

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.Secret), nil
			})

			if err != nil || !token.Valid {
				fields := map[string]interface{}{}
				if err != nil {
					fields["error"] = err.Error()
				}
				logger.Warn(ctx, "Invalid token", fields)
				return c.JSON(http.StatusUnauthorized, newErrorResponse("Invalid or expired token"))
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Warn(ctx, "Invalid token claims", nil)
				return c.JSON(http.StatusUnauthorized, newErrorResponse("Invalid token claims"))
			}

			userUUID, ok := claims["user_uuid"].(string)
			if !ok {
				logger.Warn(ctx, "Missing user_uuid in token claims", nil)
				return c.JSON(http.StatusUnauthorized, newErrorResponse("Missing user_uuid in token"))
			}

			c.Set("user_uuid", userUUID)

			return next(c)
		}
	}
}
