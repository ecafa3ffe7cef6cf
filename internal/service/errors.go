package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidCredentials     = errors.New("Invalid credentials.")
	ErrAccountInactive        = errors.New("Account deactivated. Contact admin.")
	ErrEmailAlreadyRegistered = errors.New("Email already registered.")
	ErrInvalidRole            = errors.New("Invalid role. Only client or team registration is allowed.")
	ErrOTPInvalid             = errors.New("Invalid OTP code.")
	ErrNoTwoFactorSecret      = errors.New("No 2FA secret found. Start setup again.")
	ErrResetTokenInvalid      = errors.New("Invalid or expired reset token.")
	ErrWrongPassword          = errors.New("Current password is incorrect.")
	ErrUserNotFound           = errors.New("User not found.")
	ErrTeamMemberNotFound     = errors.New("Team member not found.")
	ErrExpiryDateRequired     = errors.New("expiryDate is required for temporary admin.")
	ErrExpiryDateInPast       = errors.New("expiryDate must be in the future.")
	ErrCannotDeactivateAdmin  = errors.New("Cannot deactivate admin.")
)
