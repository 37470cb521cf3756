package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authpkg "github.com/realflow/voice-intake/internal/auth"
)

// RequireRole enforces the role carried by an operator token. It is a no-op
// when the JWT manager is disabled, mirroring OperatorJWT.
func RequireRole(manager *authpkg.JWTManager, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !manager.Enabled() {
			return next
		}
		return func(c echo.Context) error {
			value, ok := c.Get(ContextKeyRole).(string)
			if !ok || value == "" {
				return c.JSON(http.StatusForbidden, map[string]string{"status": "error", "message": "missing role"})
			}
			if value != role {
				return c.JSON(http.StatusForbidden, map[string]string{"status": "error", "message": "insufficient permissions"})
			}
			return next(c)
		}
	}
}
