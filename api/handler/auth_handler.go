package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"agencyhub/api/middleware"
	"agencyhub/internal/dto"
	"agencyhub/internal/service"
	"agencyhub/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
	Logger   *logrus.Logger
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Service: svc, Validate: validate, Logger: logger}
}

// Register creates a client or team account. The caller is not logged in
// afterwards; the response points them at 2FA setup.
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.Service.Register(c.Request().Context(), req)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusCreated,
		"Account created successfully. Please set up 2FA to complete your login.",
		dto.RegisterResponse{
			User:     dto.UserResponseFromEntity(user),
			NextStep: "setup_2fa",
		})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	result, err := h.Service.Login(c.Request().Context(), req, clientIP(c))
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	switch {
	case result.Needs2FASetup:
		return respond(c, http.StatusOK, "Credentials valid. Please set up 2FA.", result)
	case result.Requires2FA:
		return respond(c, http.StatusOK, "Credentials valid. Please enter your 2FA code.", result)
	default:
		return respond(c, http.StatusOK, "Login successful.", result)
	}
}

// Setup2FA requires a setup-purpose token in the Authorization header.
func (h *AuthHandler) Setup2FA(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return fail(c, http.StatusUnauthorized, "Invalid or expired setup token.")
	}

	enrollment, err := h.Service.Setup2FA(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) || errors.Is(err, utils.ErrTokenInvalid) {
			return fail(c, http.StatusUnauthorized, "Invalid or expired setup token.")
		}
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK,
		"2FA secret generated. Scan the QR code with your authenticator app.",
		dto.TwoFactorSetupResponse{
			QRCode:     enrollment.QRCode,
			ManualKey:  enrollment.Secret,
			OtpauthURL: enrollment.OtpauthURL,
		})
}

func (h *AuthHandler) Enable2FA(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return fail(c, http.StatusUnauthorized, "Invalid or expired setup token.")
	}

	var req dto.TwoFactorCodeRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	result, err := h.Service.Enable2FA(c.Request().Context(), token, req.OTP, clientIP(c))
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) || errors.Is(err, utils.ErrTokenInvalid) {
			return fail(c, http.StatusUnauthorized, "Invalid or expired setup token.")
		}
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK, "2FA enabled successfully. You are now logged in.", result)
}

// Verify2FA completes a login using the partial token from the login step.
func (h *AuthHandler) Verify2FA(c echo.Context) error {
	token := bearerToken(c)
	if token == "" {
		return fail(c, http.StatusUnauthorized, "Invalid or expired token. Please login again.")
	}

	var req dto.TwoFactorCodeRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	result, err := h.Service.Verify2FA(c.Request().Context(), token, req.OTP, clientIP(c))
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) || errors.Is(err, utils.ErrTokenInvalid) {
			return fail(c, http.StatusUnauthorized, "Invalid or expired token. Please login again.")
		}
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK, "Login successful.", result)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req dto.RefreshRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	pair, err := h.Service.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) ||
			errors.Is(err, utils.ErrTokenInvalid) ||
			errors.Is(err, utils.ErrTokenPurpose) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token.")
		}
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK, "Token refreshed.", pair)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req dto.ForgotPasswordRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if err := h.Service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	// Same response whether or not the account exists.
	return respond(c, http.StatusOK, "If that email exists, a reset link has been sent.", nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req dto.ResetPasswordRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if err := h.Service.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK, "Password reset successfully. You can now login.", nil)
}

func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "No token provided. Access denied.")
	}

	return respond(c, http.StatusOK, "", dto.MeResponse{
		User:          dto.UserResponseFromEntity(user),
		DashboardRole: string(user.DashboardRole(h.Service.Now())),
	})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "No token provided. Access denied.")
	}

	var req dto.ChangePasswordRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	if err := h.Service.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK, "Password changed successfully.", nil)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "No token provided. Access denied.")
	}

	var req dto.UpdateProfileRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	updated, err := h.Service.UpdateProfile(c.Request().Context(), user.ID, req)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}

	return respond(c, http.StatusOK, "Profile updated.", map[string]any{
		"user": dto.UserResponseFromEntity(updated),
	})
}

func (h *AuthHandler) bind(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	if err := decoder.Decode(target); err != nil {
		return errors.New("invalid request body")
	}
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(target)
}

func bearerToken(c echo.Context) string {
	authorization := c.Request().Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(c echo.Context) *string {
	ip := c.RealIP()
	if strings.TrimSpace(ip) == "" {
		return nil
	}
	return &ip
}
