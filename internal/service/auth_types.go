package service

import (
	"context"
	"time"

	"agencyhub/internal/entity"

	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	ResetTokenTTL time.Duration
	TOTPIssuer    string
}

// EmailSender delivers out-of-band mail. Every call site treats delivery
// as fire-and-forget: failures are logged, never propagated into the auth
// state change that triggered them.
type EmailSender interface {
	SendWelcomeEmail(ctx context.Context, user *entity.User) error
	SendTwoFactorSetupEmail(ctx context.Context, user *entity.User) error
	SendPasswordResetEmail(ctx context.Context, user *entity.User, token string) error
	SendAdminAccessEmail(ctx context.Context, user *entity.User, isPermanent bool, expiry *time.Time) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = 12
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
