package handler

import (
	"net/http"
	"strconv"

	"agencyhub/api/middleware"
	"agencyhub/internal/dto"
	"agencyhub/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NotificationHandler exposes the in-app notifications the auth core
// writes (grants, revocations, expiries).
type NotificationHandler struct {
	Notifications repository.NotificationRepository
	Logger        *logrus.Logger
}

func NewNotificationHandler(notifications repository.NotificationRepository, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications, Logger: logger}
}

func (h *NotificationHandler) List(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "No token provided. Access denied.")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	unreadOnly := c.QueryParam("unreadOnly") == "true"

	notifications, total, err := h.Notifications.ListByRecipient(
		c.Request().Context(), user.ID, unreadOnly, limit, (page-1)*limit)
	if err != nil {
		h.Logger.WithError(err).Error("failed to list notifications")
		return fail(c, http.StatusInternalServerError, "Something went wrong.")
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return respond(c, http.StatusOK, "", dto.NotificationListResponse{
		Notifications: dto.NotificationResponsesFromEntities(notifications),
		Pagination:    dto.Pagination{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "No token provided. Access denied.")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid notification id.")
	}

	if err := h.Notifications.MarkRead(c.Request().Context(), id, user.ID); err != nil {
		h.Logger.WithError(err).Error("failed to mark notification read")
		return fail(c, http.StatusInternalServerError, "Something went wrong.")
	}
	return respond(c, http.StatusOK, "Notification marked as read.", nil)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "No token provided. Access denied.")
	}

	if err := h.Notifications.MarkAllRead(c.Request().Context(), user.ID); err != nil {
		h.Logger.WithError(err).Error("failed to mark notifications read")
		return fail(c, http.StatusInternalServerError, "Something went wrong.")
	}
	return respond(c, http.StatusOK, "All notifications marked as read.", nil)
}
