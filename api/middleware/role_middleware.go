package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"agencyhub/internal/entity"

	"github.com/labstack/echo/v4"
)

// RequireRoles gates a route to the named roles. "admin" in the list is
// satisfied by derived admin access, so an elevated team member passes an
// admin-only gate.
func RequireRoles(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFromContext(c)
			if !ok {
				return failAuth(c, http.StatusUnauthorized, "No token provided. Access denied.")
			}

			now := time.Now()
			for _, role := range roles {
				if role == user.Role {
					return next(c)
				}
				if role == entity.RoleAdmin && user.HasAdminAccess(now) {
					return next(c)
				}
			}

			names := make([]string, 0, len(roles))
			for _, role := range roles {
				names = append(names, string(role))
			}
			return failAuth(c, http.StatusForbidden, fmt.Sprintf(
				"Access denied. Requires one of: [%s]. Your role: %s.",
				strings.Join(names, ", "), user.Role))
		}
	}
}
