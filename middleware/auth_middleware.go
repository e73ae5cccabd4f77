// middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillstream/lms_backend/models"
)

// RoleLookup resolves an account id to its current role. Roles are read from
// storage rather than trusted from token claims, so a role change takes
// effect without waiting for tokens to expire.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

// RequireRole allows the request through only when the authenticated account
// holds one of the given roles.
func RequireRole(lookup RoleLookup, allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserIDFromToken(c)
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication required",
				})
			}

			role, err := lookup.RoleOf(c.Request().Context(), userID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed",
				})
			}

			for _, allowed := range allowedRoles {
				if role == allowed {
					return next(c)
				}
			}

			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your role",
			})
		}
	}
}
