package routes

import (
	"time"

	"agencyhub/api/handler"
	"agencyhub/api/middleware"
	"agencyhub/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Admin          *handler.AdminHandler
	Notifications  *handler.NotificationHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	adminHandler *handler.AdminHandler,
	notificationHandler *handler.NotificationHandler,
	authMiddleware middleware.AuthMiddleware,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Admin:          adminHandler,
		Notifications:  notificationHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	requireAuth := r.AuthMiddleware.RequireAuth
	adminOnly := middleware.RequireRoles(entity.RoleAdmin)

	e.POST("/auth/register", r.Auth.Register, r.AuthRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/2fa/setup", r.Auth.Setup2FA, r.AuthRate.Middleware())
	e.POST("/auth/2fa/enable", r.Auth.Enable2FA, r.LoginRate.Middleware())
	e.POST("/auth/2fa/verify", r.Auth.Verify2FA, r.LoginRate.Middleware())
	e.POST("/auth/refresh", r.Auth.Refresh, r.AuthRate.Middleware())
	e.POST("/auth/forgot-password", r.Auth.ForgotPassword, r.LoginRate.Middleware())
	e.POST("/auth/reset-password", r.Auth.ResetPassword, r.AuthRate.Middleware())

	e.GET("/auth/me", r.Auth.Me, requireAuth)
	e.POST("/auth/change-password", r.Auth.ChangePassword, requireAuth)
	e.PUT("/auth/profile", r.Auth.UpdateProfile, requireAuth)

	e.POST("/admin/grant-admin", r.Admin.GrantAdmin, requireAuth, adminOnly)
	e.POST("/admin/revoke-admin", r.Admin.RevokeAdmin, requireAuth, adminOnly)
	e.GET("/admin/users", r.Admin.ListUsers, requireAuth, adminOnly)
	e.PATCH("/admin/users/:id/toggle-active", r.Admin.ToggleUserActive, requireAuth, adminOnly)

	e.GET("/notifications", r.Notifications.List, requireAuth)
	e.PATCH("/notifications/:id/read", r.Notifications.MarkRead, requireAuth)
	e.PATCH("/notifications/read-all", r.Notifications.MarkAllRead, requireAuth)
}
