package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"agencyhub/api/middleware"
	"agencyhub/internal/dto"
	"agencyhub/internal/entity"
	"agencyhub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	Service  *service.AdminService
	Validate *validator.Validate
	Logger   *logrus.Logger
}

func NewAdminHandler(svc *service.AdminService, validate *validator.Validate, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, Validate: validate, Logger: logger}
}

func (h *AdminHandler) GrantAdmin(c echo.Context) error {
	granter, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "No token provided. Access denied.")
	}

	var req dto.GrantAdminRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.Service.GrantAdminAccess(c.Request().Context(), granter.ID, req)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	message := "Admin access granted permanently."
	if !req.IsPermanent {
		message = "Admin access granted until " + req.ExpiryDate.Format("Jan 2, 2006") + "."
	}
	return respond(c, http.StatusOK, message, map[string]any{
		"user": dto.UserResponseFromEntity(user),
	})
}

func (h *AdminHandler) RevokeAdmin(c echo.Context) error {
	revoker, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "No token provided. Access denied.")
	}

	var req dto.RevokeAdminRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.Service.RevokeAdminAccess(c.Request().Context(), revoker.ID, req.UserID)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK, "Admin access revoked.", map[string]any{
		"user": dto.UserResponseFromEntity(user),
	})
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	var role *entity.Role
	if value := c.QueryParam("role"); value != "" {
		parsed := entity.Role(value)
		if !parsed.Valid() {
			return fail(c, http.StatusBadRequest, "Unknown role filter.")
		}
		role = &parsed
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	users, pagination, err := h.Service.ListUsers(c.Request().Context(), role, page, limit)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK, "", dto.UserListResponse{
		Users:      dto.UserResponsesFromEntities(users),
		Pagination: pagination,
	})
}

func (h *AdminHandler) ToggleUserActive(c echo.Context) error {
	user, err := h.Service.ToggleUserActive(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	message := "User deactivated."
	if user.IsActive {
		message = "User activated."
	}
	return respond(c, http.StatusOK, message, map[string]any{"isActive": user.IsActive})
}

func (h *AdminHandler) bind(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	if err := decoder.Decode(target); err != nil {
		return errors.New("invalid request body")
	}
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(target)
}
