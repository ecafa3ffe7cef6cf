package handler

import (
	"errors"
	"net/http"

	"agencyhub/internal/service"
	"agencyhub/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Every response uses the {success, message, data} envelope; sensitive
// fields never appear anywhere in it.

func respond(c echo.Context, status int, message string, data any) error {
	body := map[string]any{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{"success": false, "message": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized is logged server-side and reported as a generic
// 500 with no internal detail.
func writeServiceError(c echo.Context, logger *logrus.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrOTPInvalid),
		errors.Is(err, service.ErrNoTwoFactorSecret),
		errors.Is(err, service.ErrResetTokenInvalid),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrExpiryDateRequired),
		errors.Is(err, service.ErrExpiryDateInPast):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrCannotDeactivateAdmin):
		return fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTeamMemberNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, utils.ErrTokenPurpose):
		return fail(c, http.StatusBadRequest, "Invalid token purpose.")
	case errors.Is(err, utils.ErrTokenExpired),
		errors.Is(err, utils.ErrTokenInvalid):
		return fail(c, http.StatusUnauthorized, "Invalid or expired token.")
	}

	if logger != nil {
		logger.WithError(err).WithField("path", c.Path()).Error("unhandled service error")
	}
	return fail(c, http.StatusInternalServerError, "Something went wrong.")
}
