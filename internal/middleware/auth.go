package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"assembly-service/internal/governance"
	"assembly-service/pkg/jwtutil"
	"assembly-service/pkg/logger"
	"assembly-service/prometheus"
)

const identityKey = "identity"

// AuthMiddleware validates the JWT token and stores the caller's identity.
// Tokens without a tenant are rejected: every governance call is tenant scoped.
func AuthMiddleware(jwtUtil *jwtutil.JWTUtil, metrics *prometheus.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			// Get the Authorization header
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				metrics.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			// Check if it's a Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				metrics.RecordAuthError("invalid_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				metrics.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			if claims.TenantID == nil {
				log.Warn("JWT token does not contain tenant_id")
				metrics.RecordAuthError("missing_tenant")
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required in the token"})
			}

			identity := governance.Identity{
				UserID:   claims.UserID,
				TenantID: *claims.TenantID,
				Role:     claims.Role,
			}
			c.Set(identityKey, identity)
			c.Set("user_id", identity.UserID)
			c.Set("tenant_id", identity.TenantID)
			c.Set("user_role", identity.Role)

			// Enrich the request logger with the caller
			reqLogger := log.With(
				zap.Uint("user_id", identity.UserID),
				zap.Uint("tenant_id", identity.TenantID),
			)
			c.Set("logger", reqLogger)
			c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context(), reqLogger)))

			return next(c)
		}
	}
}

// IdentityFromContext returns the identity stored by AuthMiddleware
func IdentityFromContext(c echo.Context) (governance.Identity, bool) {
	identity, ok := c.Get(identityKey).(governance.Identity)
	return identity, ok
}
