package middleware

import (
	"net/http"
	"strings"

	"repairshop-service/internal/service"
	"repairshop-service/pkg/jwtutil"
	"repairshop-service/pkg/logger"
	"repairshop-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token and extracts the tenant context.
// Token issuing lives outside this service; all we need from a request is the
// (tenant_id, user_id, role) triple.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		claims, err := claimsFromRequest(c)
		if err != nil {
			log.Warn("Rejected unauthenticated request", zap.Error(err))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
		}

		if claims.TenantID == nil {
			log.Warn("JWT token does not contain tenant_id")
			prometheus.TenantContextMissingCounter.Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required in the token"})
		}

		c.Set("actor", service.Actor{
			TenantID: *claims.TenantID,
			UserID:   claims.UserID,
			Name:     claims.UserName,
			Role:     claims.Role,
		})

		log.Info("Request authenticated with tenant context",
			zap.Uint("tenant_id", *claims.TenantID),
			zap.Uint("user_id", claims.UserID),
			zap.String("role", claims.Role))

		return next(c)
	}
}

// SuperAdminMiddleware admits only platform-operator tokens.
func SuperAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		claims, err := claimsFromRequest(c)
		if err != nil {
			log.Warn("Rejected unauthenticated request", zap.Error(err))
			prometheus.AuthErrorsCounter.Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
		}
		if !claims.IsSuperAdmin {
			log.Warn("Non-operator token on super-admin route", zap.Uint("user_id", claims.UserID))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "super admin access required"})
		}

		c.Set("super_admin_id", claims.UserID)
		return next(c)
	}
}

// RequireAdmin gates a route to tenant admins. Must run after AuthMiddleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, ok := ActorFromContext(c)
		if !ok || actor.Role != "admin" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}
		return next(c)
	}
}

func claimsFromRequest(c echo.Context) (*jwtutil.UserClaims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "expected Bearer token")
	}
	return jwtutil.ValidateToken(parts[1])
}

// ActorFromContext retrieves the authenticated actor from the context.
func ActorFromContext(c echo.Context) (service.Actor, bool) {
	actor, ok := c.Get("actor").(service.Actor)
	return actor, ok
}
