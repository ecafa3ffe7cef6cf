package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"agencyhub/internal/repository"
	"agencyhub/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware guards protected routes: it verifies the bearer token as
// an access-purpose token, loads the user, clears a lapsed temporary admin
// grant before the identity is used, and attaches the user to the request.
type AuthMiddleware struct {
	Tokens utils.TokenManager
	Users  repository.UserRepository
	Now    func() time.Time
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractBearerToken(c.Request())
		if token == "" {
			return failAuth(c, http.StatusUnauthorized, "No token provided. Access denied.")
		}

		claims, err := m.Tokens.Parse(token, utils.PurposeAccess)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				return failAuth(c, http.StatusUnauthorized, "Token expired. Please login again.")
			}
			return failAuth(c, http.StatusUnauthorized, "Invalid token.")
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return failAuth(c, http.StatusUnauthorized, "Invalid token.")
		}

		user, err := m.Users.FindByID(c.Request().Context(), userID)
		if err != nil {
			return failAuth(c, http.StatusInternalServerError, "Something went wrong.")
		}
		if user == nil {
			return failAuth(c, http.StatusUnauthorized, "User not found.")
		}
		if !user.IsActive {
			return failAuth(c, http.StatusForbidden, "Account is deactivated.")
		}

		// Lazy expiry: privilege must never outlive its grant window,
		// even if the sweeper has not run yet.
		if user.TemporaryAdminExpired(m.now()) {
			if err := m.Users.ClearTemporaryAdmin(c.Request().Context(), user.ID); err != nil {
				return failAuth(c, http.StatusInternalServerError, "Something went wrong.")
			}
			user.IsTemporaryAdmin = false
			user.TemporaryAdminUntil = nil
		}

		SetAuthUser(c, user)
		return next(c)
	}
}

func (m AuthMiddleware) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func failAuth(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{"success": false, "message": message})
}
