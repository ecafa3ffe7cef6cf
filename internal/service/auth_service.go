package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"agencyhub/internal/dto"
	"agencyhub/internal/entity"
	"agencyhub/internal/repository"
	"agencyhub/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Burned once at startup cost; compared against when an unknown email logs
// in so response timing does not reveal whether the account exists.
const dummyPasswordHash = "$2a$12$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

// AuthService drives registration, the login state machine, 2FA setup and
// verification, token refresh and password reset.
type AuthService struct {
	users         repository.UserRepository
	securityLogs  repository.SecurityLogRepository
	notifications repository.NotificationRepository

	emailSender  EmailSender
	notifier     *Notifier
	passwordHash PasswordHasher
	tokens       utils.TokenManager
	totp         *TOTPProvider
	clock        Clock
	config       AuthConfig
}

func NewAuthService(
	users repository.UserRepository,
	securityLogs repository.SecurityLogRepository,
	notifications repository.NotificationRepository,
	emailSender EmailSender,
	notifier *Notifier,
	passwordHash PasswordHasher,
	tokens utils.TokenManager,
	totp *TOTPProvider,
	clock Clock,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		users:         users,
		securityLogs:  securityLogs,
		notifications: notifications,
		emailSender:   emailSender,
		notifier:      notifier,
		passwordHash:  passwordHash,
		tokens:        tokens,
		totp:          totp,
		clock:         clock,
		config:        config,
	}
}

// Register creates a client or team account. The caller is not yet
// authenticated afterwards; login will route them into 2FA setup.
func (s *AuthService) Register(ctx context.Context, input dto.RegisterRequest) (*entity.User, error) {
	role := entity.Role(input.Role)
	if !role.SelfRegisterable() {
		return nil, ErrInvalidRole
	}

	email := utils.NormalizeEmail(input.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		Timezone:     "UTC",
	}
	if input.Phone != "" {
		user.Phone = &input.Phone
	}
	switch role {
	case entity.RoleClient:
		if input.Company != "" {
			user.Company = &input.Company
		}
		if input.Industry != "" {
			user.Industry = &input.Industry
		}
	case entity.RoleTeam:
		if input.JobTitle != "" {
			user.JobTitle = &input.JobTitle
		}
		user.SetSkills(input.Skills)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.emailSender != nil {
		created := *user
		s.notifier.Go("welcome_email", func(ctx context.Context) error {
			return s.emailSender.SendWelcomeEmail(ctx, &created)
		})
		s.notifier.Go("2fa_setup_email", func(ctx context.Context) error {
			return s.emailSender.SendTwoFactorSetupEmail(ctx, &created)
		})
	}

	return user, nil
}

// Login is step one of the state machine: verify credentials, then either
// issue a session (admins), demand 2FA setup, or demand an OTP.
func (s *AuthService) Login(ctx context.Context, input dto.LoginRequest, ipAddress *string) (*dto.LoginResponse, error) {
	email := utils.NormalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		s.logSecurity(ctx, nil, ipAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if !s.passwordHash.Verify(user.PasswordHash, input.Password) {
		s.logSecurity(ctx, &user.ID, ipAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	// Admins log in without 2FA. Elevated team members do not get the
	// bypass; only the stored role counts here.
	if user.Role == entity.RoleAdmin {
		now := s.now()
		user.LastLoginAt = &now
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		session, err := s.issueSession(user)
		if err != nil {
			return nil, err
		}
		s.logSecurity(ctx, &user.ID, ipAddress, entity.LoginSuccess, nil)
		return session, nil
	}

	if !user.TwoFactorEnabled {
		setupToken, _, err := s.tokens.IssueSetupToken(user.ID.String())
		if err != nil {
			return nil, err
		}
		return &dto.LoginResponse{
			Requires2FA:   false,
			Needs2FASetup: true,
			SetupToken:    setupToken,
			UserID:        user.ID.String(),
		}, nil
	}

	partialToken, _, err := s.tokens.IssueVerifyToken(user.ID.String())
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Requires2FA:  true,
		PartialToken: partialToken,
		UserID:       user.ID.String(),
	}, nil
}

// Setup2FA generates and stores a fresh TOTP secret for the holder of a
// setup-purpose token. Calling it again before enabling replaces the
// secret.
func (s *AuthService) Setup2FA(ctx context.Context, setupToken string) (*TwoFactorEnrollment, error) {
	user, err := s.userFromToken(ctx, setupToken, utils.PurposeSetup2FA)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.totp.GenerateEnrollment(user.Email)
	if err != nil {
		return nil, err
	}

	user.TwoFactorSecret = &enrollment.Secret
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Enable2FA verifies the first OTP against the stored secret and, on
// success, turns 2FA on and issues the session in one user update.
func (s *AuthService) Enable2FA(ctx context.Context, setupToken string, otp string, ipAddress *string) (*dto.LoginResponse, error) {
	user, err := s.userFromToken(ctx, setupToken, utils.PurposeSetup2FA)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorSecret == nil || *user.TwoFactorSecret == "" {
		return nil, ErrNoTwoFactorSecret
	}

	if !s.totp.ValidateCode(*user.TwoFactorSecret, otp) {
		s.logSecurity(ctx, &user.ID, ipAddress, entity.OTPFailed, map[string]any{"stage": "enable"})
		return nil, ErrOTPInvalid
	}

	now := s.now()
	user.TwoFactorEnabled = true
	user.TwoFactorVerified = true
	user.OnboardingComplete = true
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.logSecurity(ctx, &user.ID, ipAddress, entity.TwoFactorSetup, nil)
	s.logSecurity(ctx, &user.ID, ipAddress, entity.LoginSuccess, map[string]any{"mfa": true})
	return session, nil
}

// Verify2FA completes a login for a user whose 2FA is already enabled.
func (s *AuthService) Verify2FA(ctx context.Context, partialToken string, otp string, ipAddress *string) (*dto.LoginResponse, error) {
	user, err := s.userFromToken(ctx, partialToken, utils.PurposeVerify2FA)
	if err != nil {
		return nil, err
	}

	if err := s.revokeIfExpired(ctx, user); err != nil {
		return nil, err
	}

	if user.TwoFactorSecret == nil || *user.TwoFactorSecret == "" {
		return nil, ErrNoTwoFactorSecret
	}
	if !s.totp.ValidateCode(*user.TwoFactorSecret, otp) {
		s.logSecurity(ctx, &user.ID, ipAddress, entity.OTPFailed, map[string]any{"stage": "verify"})
		return nil, ErrOTPInvalid
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.logSecurity(ctx, &user.ID, ipAddress, entity.LoginSuccess, map[string]any{"mfa": true})
	return session, nil
}

// Refresh exchanges a refresh token for a new access/refresh pair. The
// refresh secret is distinct from the access secret; an access token can
// never pass here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error) {
	claims, err := s.tokens.Parse(refreshToken, utils.PurposeRefresh)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, utils.ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, utils.ErrTokenInvalid
	}

	if err := s.revokeIfExpired(ctx, user); err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.tokens.IssueAccessToken(user.ID.String(), string(user.Role), user.HasAdminAccess(s.now()))
	if err != nil {
		return nil, err
	}
	newRefreshToken, _, err := s.tokens.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(expiresIn.Seconds()),
	}, nil
}

// ForgotPassword stores a single-use reset token and mails it out. The
// caller always gets the same generic response, whether or not the email
// exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := utils.GenerateRandomToken(32)
	if err != nil {
		return err
	}
	tokenHash := utils.HashToken(token)
	expiry := s.now().Add(s.resetTokenTTL())
	user.ResetPasswordToken = &tokenHash
	user.ResetPasswordExpiry = &expiry
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if s.emailSender != nil {
		target := *user
		s.notifier.Go("password_reset_email", func(ctx context.Context) error {
			return s.emailSender.SendPasswordResetEmail(ctx, &target, token)
		})
	}
	return nil
}

// ResetPassword consumes a reset token. No-match and expired are reported
// identically.
func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	user, err := s.users.FindByResetToken(ctx, utils.HashToken(token), s.now())
	if err != nil {
		return err
	}
	if user == nil {
		return ErrResetTokenInvalid
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpiry = nil
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logSecurity(ctx, &user.ID, nil, entity.PasswordReset, nil)
	return nil
}

// ChangePassword requires re-verification of the current password. 2FA is
// not re-checked; holding a valid access token is sufficient.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword string, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !s.passwordHash.Verify(user.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logSecurity(ctx, &user.ID, nil, entity.PasswordChanged, nil)
	return nil
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileRequest) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if input.FirstName != "" {
		user.FirstName = strings.TrimSpace(input.FirstName)
	}
	if input.LastName != "" {
		user.LastName = strings.TrimSpace(input.LastName)
	}
	if input.Phone != "" {
		user.Phone = &input.Phone
	}
	if input.Timezone != "" {
		user.Timezone = input.Timezone
	}
	switch user.Role {
	case entity.RoleClient:
		if input.Company != "" {
			user.Company = &input.Company
		}
		if input.Industry != "" {
			user.Industry = &input.Industry
		}
	case entity.RoleTeam:
		if input.JobTitle != "" {
			user.JobTitle = &input.JobTitle
		}
		if input.Skills != nil {
			user.SetSkills(input.Skills)
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Now exposes the service clock for handlers that derive dashboardRole.
func (s *AuthService) Now() time.Time {
	return s.now()
}

func (s *AuthService) userFromToken(ctx context.Context, token string, purpose utils.TokenPurpose) (*entity.User, error) {
	claims, err := s.tokens.Parse(token, purpose)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, utils.ErrTokenInvalid
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// revokeIfExpired is the lazy half of temporary-admin expiry: any flow
// touching the user clears a lapsed grant before privileges are snapshot
// into a token.
func (s *AuthService) revokeIfExpired(ctx context.Context, user *entity.User) error {
	if !user.TemporaryAdminExpired(s.now()) {
		return nil
	}
	if err := s.users.ClearTemporaryAdmin(ctx, user.ID); err != nil {
		return err
	}
	user.IsTemporaryAdmin = false
	user.TemporaryAdminUntil = nil
	return nil
}

func (s *AuthService) issueSession(user *entity.User) (*dto.LoginResponse, error) {
	now := s.now()
	hasAdmin := user.HasAdminAccess(now)

	accessToken, expiresIn, err := s.tokens.IssueAccessToken(user.ID.String(), string(user.Role), hasAdmin)
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.tokens.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}

	response := dto.UserResponseFromEntity(user)
	return &dto.LoginResponse{
		User:          &response,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		ExpiresIn:     int64(expiresIn.Seconds()),
		DashboardRole: string(user.DashboardRole(now)),
		Requires2FA:   false,
	}, nil
}

func (s *AuthService) logSecurity(ctx context.Context, userID *uuid.UUID, ipAddress *string, action entity.SecurityAction, metadata map[string]any) {
	if s.securityLogs == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return
		}
		payload = datatypes.JSON(raw)
	}
	_ = s.securityLogs.Log(ctx, &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	})
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AuthService) resetTokenTTL() time.Duration {
	if s.config.ResetTokenTTL > 0 {
		return s.config.ResetTokenTTL
	}
	return time.Hour
}
