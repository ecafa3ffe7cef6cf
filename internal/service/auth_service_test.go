package service

import (
	"context"
	"io"
	"testing"
	"time"

	"agencyhub/internal/dto"
	"agencyhub/internal/entity"
	"agencyhub/internal/utils"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type authFixture struct {
	svc           *AuthService
	users         *memUserRepo
	notifications *memNotificationRepo
	securityLogs  *memSecurityLogRepo
	emails        *recordingEmailSender
	tokens        utils.TokenManager
	clock         fixedClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := newMemUserRepo()
	notifications := &memNotificationRepo{}
	securityLogs := &memSecurityLogRepo{}
	emails := &recordingEmailSender{}
	clock := fixedClock{now: testTime}

	tokens := utils.TokenManager{
		AccessSecret:    []byte("access-secret"),
		RefreshSecret:   []byte("refresh-secret"),
		TwoFactorSecret: []byte("two-factor-secret"),
		Issuer:          "agencyhub-test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		SetupTokenTTL:   30 * time.Minute,
		VerifyTokenTTL:  10 * time.Minute,
	}

	totpProvider := NewTOTPProvider("agencyhub-test")
	totpProvider.Clock = clock

	notifier := NewNotifier(logger)
	notifier.Sync = true

	svc := NewAuthService(
		users, securityLogs, notifications,
		emails, notifier, plainHasher{}, tokens, totpProvider, clock,
		AuthConfig{ResetTokenTTL: time.Hour, TOTPIssuer: "agencyhub-test"},
	)
	return &authFixture{
		svc:           svc,
		users:         users,
		notifications: notifications,
		securityLogs:  securityLogs,
		emails:        emails,
		tokens:        tokens,
		clock:         clock,
	}
}

func (f *authFixture) seedUser(t *testing.T, user *entity.User) *entity.User {
	t.Helper()
	if user.PasswordHash == "" {
		user.PasswordHash = "hashed:password123"
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func validOTP(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      2,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("client account with profile fields", func(t *testing.T) {
		f := newAuthFixture(t)

		user, err := f.svc.Register(context.Background(), dto.RegisterRequest{
			FirstName: "Ada",
			LastName:  "Okafor",
			Email:     "Ada@Example.COM",
			Password:  "password123",
			Role:      "client",
			Company:   "Okafor Media",
			Industry:  "Media",
		})
		require.NoError(t, err)
		require.Equal(t, "ada@example.com", user.Email, "email is normalized")
		require.Equal(t, entity.RoleClient, user.Role)
		require.NotNil(t, user.Company)
		require.Equal(t, "Okafor Media", *user.Company)
		require.True(t, user.IsActive)
		require.False(t, user.TwoFactorEnabled)

		require.Equal(t, []string{"welcome", "2fa_setup"}, f.emails.sent())
	})

	t.Run("team account stores skills", func(t *testing.T) {
		f := newAuthFixture(t)

		user, err := f.svc.Register(context.Background(), dto.RegisterRequest{
			FirstName: "Sam",
			LastName:  "Reyes",
			Email:     "sam@example.com",
			Password:  "password123",
			Role:      "team",
			JobTitle:  "Designer",
			Skills:    []string{"figma", "motion"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"figma", "motion"}, user.SkillList())
	})

	t.Run("admin role rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Register(context.Background(), dto.RegisterRequest{
			FirstName: "Eve",
			LastName:  "Adams",
			Email:     "eve@example.com",
			Password:  "password123",
			Role:      "admin",
		})
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("duplicate email rejected case-insensitively", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedUser(t, &entity.User{Email: "taken@example.com", Role: entity.RoleClient, IsActive: true})

		_, err := f.svc.Register(context.Background(), dto.RegisterRequest{
			FirstName: "Dup",
			LastName:  "User",
			Email:     "TAKEN@example.com",
			Password:  "password123",
			Role:      "client",
		})
		require.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t)

		_, err := f.svc.Login(context.Background(), dto.LoginRequest{
			Email: "ghost@example.com", Password: "whatever",
		}, nil)
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.Contains(t, f.securityLogs.actions(), entity.LoginFailed)
	})

	t.Run("inactive account reported before password check", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedUser(t, &entity.User{Email: "off@example.com", Role: entity.RoleClient, IsActive: false})

		_, err := f.svc.Login(context.Background(), dto.LoginRequest{
			Email: "off@example.com", Password: "wrong-password",
		}, nil)
		require.ErrorIs(t, err, ErrAccountInactive)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedUser(t, &entity.User{Email: "user@example.com", Role: entity.RoleClient, IsActive: true})

		_, err := f.svc.Login(context.Background(), dto.LoginRequest{
			Email: "user@example.com", Password: "nope",
		}, nil)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("admin gets a session without 2FA", func(t *testing.T) {
		f := newAuthFixture(t)
		admin := f.seedUser(t, &entity.User{Email: "admin@example.com", Role: entity.RoleAdmin, IsActive: true})

		resp, err := f.svc.Login(context.Background(), dto.LoginRequest{
			Email: "admin@example.com", Password: "password123",
		}, nil)
		require.NoError(t, err)
		require.False(t, resp.Requires2FA)
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)
		require.Equal(t, "admin", resp.DashboardRole)

		claims, err := f.tokens.Parse(resp.AccessToken, utils.PurposeAccess)
		require.NoError(t, err)
		require.Equal(t, admin.ID.String(), claims.UserID)
		require.True(t, claims.HasAdminAccess)

		stored, err := f.users.FindByID(context.Background(), admin.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastLoginAt)
	})

	t.Run("first login without 2FA yields a setup token", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.seedUser(t, &entity.User{Email: "new@example.com", Role: entity.RoleTeam, IsActive: true})

		resp, err := f.svc.Login(context.Background(), dto.LoginRequest{
			Email: "new@example.com", Password: "password123",
		}, nil)
		require.NoError(t, err)
		require.True(t, resp.Needs2FASetup)
		require.False(t, resp.Requires2FA)
		require.Empty(t, resp.AccessToken)
		require.Equal(t, user.ID.String(), resp.UserID)

		claims, err := f.tokens.Parse(resp.SetupToken, utils.PurposeSetup2FA)
		require.NoError(t, err)
		require.Equal(t, user.ID.String(), claims.UserID)
	})

	t.Run("enabled 2FA yields a partial token", func(t *testing.T) {
		f := newAuthFixture(t)
		secret := "JBSWY3DPEHPK3PXP"
		f.seedUser(t, &entity.User{
			Email: "mfa@example.com", Role: entity.RoleClient, IsActive: true,
			TwoFactorEnabled: true, TwoFactorVerified: true, TwoFactorSecret: &secret,
		})

		resp, err := f.svc.Login(context.Background(), dto.LoginRequest{
			Email: "mfa@example.com", Password: "password123",
		}, nil)
		require.NoError(t, err)
		require.True(t, resp.Requires2FA)
		require.Empty(t, resp.AccessToken)

		_, err = f.tokens.Parse(resp.PartialToken, utils.PurposeVerify2FA)
		require.NoError(t, err)
	})
}

func TestTwoFactorOnboarding(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, dto.RegisterRequest{
		FirstName: "Sam", LastName: "Reyes",
		Email: "sam@example.com", Password: "password123", Role: "team",
	})
	require.NoError(t, err)

	login, err := f.svc.Login(ctx, dto.LoginRequest{Email: "sam@example.com", Password: "password123"}, nil)
	require.NoError(t, err)
	require.True(t, login.Needs2FASetup)

	enrollment, err := f.svc.Setup2FA(ctx, login.SetupToken)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.OtpauthURL, "otpauth://totp/")
	require.Contains(t, enrollment.QRCode, "data:image/png;base64,")

	t.Run("wrong code does not enable", func(t *testing.T) {
		_, err := f.svc.Enable2FA(ctx, login.SetupToken, "000000", nil)
		require.ErrorIs(t, err, ErrOTPInvalid)
		require.Contains(t, f.securityLogs.actions(), entity.OTPFailed)
	})

	t.Run("repeated setup replaces the secret", func(t *testing.T) {
		again, err := f.svc.Setup2FA(ctx, login.SetupToken)
		require.NoError(t, err)
		require.NotEqual(t, enrollment.Secret, again.Secret)
		enrollment = again
	})

	t.Run("correct code enables and issues a session", func(t *testing.T) {
		session, err := f.svc.Enable2FA(ctx, login.SetupToken, validOTP(t, enrollment.Secret, testTime), nil)
		require.NoError(t, err)
		require.NotEmpty(t, session.AccessToken)
		require.Equal(t, "team", session.DashboardRole)

		stored, err := f.users.FindByEmail(ctx, "sam@example.com")
		require.NoError(t, err)
		require.True(t, stored.TwoFactorEnabled)
		require.True(t, stored.TwoFactorVerified)
		require.True(t, stored.OnboardingComplete)
		require.NotNil(t, stored.LastLoginAt)
	})

	t.Run("setup token rejected where a session token is expected", func(t *testing.T) {
		_, err := f.tokens.Parse(login.SetupToken, utils.PurposeAccess)
		require.Error(t, err)
	})
}

func TestVerify2FA(t *testing.T) {
	t.Parallel()

	newEnabledUser := func(t *testing.T, f *authFixture, email string, mutate func(*entity.User)) (*entity.User, string) {
		t.Helper()
		secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
		user := &entity.User{
			Email: email, Role: entity.RoleTeam, IsActive: true,
			TwoFactorEnabled: true, TwoFactorVerified: true, TwoFactorSecret: &secret,
		}
		if mutate != nil {
			mutate(user)
		}
		f.seedUser(t, user)
		return user, secret
	}

	t.Run("valid code completes the login", func(t *testing.T) {
		f := newAuthFixture(t)
		user, secret := newEnabledUser(t, f, "mfa@example.com", nil)

		token, _, err := f.tokens.IssueVerifyToken(user.ID.String())
		require.NoError(t, err)

		session, err := f.svc.Verify2FA(context.Background(), token, validOTP(t, secret, testTime), nil)
		require.NoError(t, err)
		require.NotEmpty(t, session.AccessToken)
		require.Equal(t, "team", session.DashboardRole)
	})

	t.Run("invalid code rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		user, _ := newEnabledUser(t, f, "mfa@example.com", nil)

		token, _, err := f.tokens.IssueVerifyToken(user.ID.String())
		require.NoError(t, err)

		_, err = f.svc.Verify2FA(context.Background(), token, "123456", nil)
		require.ErrorIs(t, err, ErrOTPInvalid)
	})

	t.Run("lapsed temporary grant revoked before the session is issued", func(t *testing.T) {
		f := newAuthFixture(t)
		past := testTime.Add(-time.Hour)
		user, secret := newEnabledUser(t, f, "elevated@example.com", func(u *entity.User) {
			u.IsTemporaryAdmin = true
			u.TemporaryAdminUntil = &past
		})

		token, _, err := f.tokens.IssueVerifyToken(user.ID.String())
		require.NoError(t, err)

		session, err := f.svc.Verify2FA(context.Background(), token, validOTP(t, secret, testTime), nil)
		require.NoError(t, err)
		require.Equal(t, "team", session.DashboardRole)

		claims, err := f.tokens.Parse(session.AccessToken, utils.PurposeAccess)
		require.NoError(t, err)
		require.False(t, claims.HasAdminAccess)

		stored, err := f.users.FindByID(context.Background(), user.ID)
		require.NoError(t, err)
		require.False(t, stored.IsTemporaryAdmin)
		require.Nil(t, stored.TemporaryAdminUntil)
	})

	t.Run("active temporary grant survives into the token", func(t *testing.T) {
		f := newAuthFixture(t)
		future := testTime.Add(time.Hour)
		user, secret := newEnabledUser(t, f, "granted@example.com", func(u *entity.User) {
			u.IsTemporaryAdmin = true
			u.TemporaryAdminUntil = &future
		})

		token, _, err := f.tokens.IssueVerifyToken(user.ID.String())
		require.NoError(t, err)

		session, err := f.svc.Verify2FA(context.Background(), token, validOTP(t, secret, testTime), nil)
		require.NoError(t, err)
		require.Equal(t, "admin", session.DashboardRole)

		claims, err := f.tokens.Parse(session.AccessToken, utils.PurposeAccess)
		require.NoError(t, err)
		require.True(t, claims.HasAdminAccess)
		require.Equal(t, "team", claims.Role, "stored role stays team")
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("exchanges a refresh token for a new pair", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.seedUser(t, &entity.User{Email: "user@example.com", Role: entity.RoleClient, IsActive: true})

		refresh, _, err := f.tokens.IssueRefreshToken(user.ID.String())
		require.NoError(t, err)

		pair, err := f.svc.Refresh(context.Background(), refresh)
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)

		claims, err := f.tokens.Parse(pair.AccessToken, utils.PurposeAccess)
		require.NoError(t, err)
		require.Equal(t, user.ID.String(), claims.UserID)
	})

	t.Run("access token rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.seedUser(t, &entity.User{Email: "user@example.com", Role: entity.RoleClient, IsActive: true})

		access, _, err := f.tokens.IssueAccessToken(user.ID.String(), "client", false)
		require.NoError(t, err)

		_, err = f.svc.Refresh(context.Background(), access)
		require.ErrorIs(t, err, utils.ErrTokenInvalid)
	})

	t.Run("deactivated user rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.seedUser(t, &entity.User{Email: "off@example.com", Role: entity.RoleClient, IsActive: false})

		refresh, _, err := f.tokens.IssueRefreshToken(user.ID.String())
		require.NoError(t, err)

		_, err = f.svc.Refresh(context.Background(), refresh)
		require.ErrorIs(t, err, utils.ErrTokenInvalid)
	})

	t.Run("lapsed grant never reaches the refreshed token", func(t *testing.T) {
		f := newAuthFixture(t)
		past := testTime.Add(-time.Minute)
		user := f.seedUser(t, &entity.User{
			Email: "elevated@example.com", Role: entity.RoleTeam, IsActive: true,
			IsTemporaryAdmin: true, TemporaryAdminUntil: &past,
		})

		refresh, _, err := f.tokens.IssueRefreshToken(user.ID.String())
		require.NoError(t, err)

		pair, err := f.svc.Refresh(context.Background(), refresh)
		require.NoError(t, err)

		claims, err := f.tokens.Parse(pair.AccessToken, utils.PurposeAccess)
		require.NoError(t, err)
		require.False(t, claims.HasAdminAccess)

		stored, err := f.users.FindByID(context.Background(), user.ID)
		require.NoError(t, err)
		require.False(t, stored.IsTemporaryAdmin)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("unknown email is a silent no-op", func(t *testing.T) {
		f := newAuthFixture(t)

		require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
		require.Empty(t, f.emails.sent())
	})

	t.Run("token is stored hashed and consumed once", func(t *testing.T) {
		f := newAuthFixture(t)
		ctx := context.Background()
		user := f.seedUser(t, &entity.User{Email: "user@example.com", Role: entity.RoleClient, IsActive: true})

		require.NoError(t, f.svc.ForgotPassword(ctx, "user@example.com"))
		require.Equal(t, []string{"password_reset"}, f.emails.sent())

		token := f.emails.resetToken()
		require.NotEmpty(t, token)

		stored, err := f.users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ResetPasswordToken)
		require.NotEqual(t, token, *stored.ResetPasswordToken, "raw token never stored")
		require.Equal(t, utils.HashToken(token), *stored.ResetPasswordToken)
		require.Equal(t, testTime.Add(time.Hour), *stored.ResetPasswordExpiry)

		require.NoError(t, f.svc.ResetPassword(ctx, token, "new-password"))

		stored, err = f.users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "hashed:new-password", stored.PasswordHash)
		require.Nil(t, stored.ResetPasswordToken)
		require.Nil(t, stored.ResetPasswordExpiry)

		require.ErrorIs(t, f.svc.ResetPassword(ctx, token, "again"), ErrResetTokenInvalid)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		require.ErrorIs(t,
			f.svc.ResetPassword(context.Background(), "not-a-real-token", "new-password"),
			ErrResetTokenInvalid)
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, &entity.User{Email: "user@example.com", Role: entity.RoleClient, IsActive: true})

	require.ErrorIs(t,
		f.svc.ChangePassword(ctx, user.ID, "wrong", "next-password"),
		ErrWrongPassword)

	require.ErrorIs(t,
		f.svc.ChangePassword(ctx, uuid.New(), "password123", "next-password"),
		ErrUserNotFound)

	require.NoError(t, f.svc.ChangePassword(ctx, user.ID, "password123", "next-password"))

	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "hashed:next-password", stored.PasswordHash)
	require.Contains(t, f.securityLogs.actions(), entity.PasswordChanged)
}
