package service

import (
	"context"

	"agencyhub/internal/entity"
	"agencyhub/internal/repository"
	"agencyhub/internal/utils"

	"github.com/sirupsen/logrus"
)

// SeedAdmin creates the bootstrap admin account if it does not exist yet.
// Idempotent: keyed by the configured admin email. Admins never go through
// 2FA setup, so the record is created ready to log in.
func SeedAdmin(ctx context.Context, users repository.UserRepository, hasher PasswordHasher, email, password string, logger *logrus.Logger) error {
	email = utils.NormalizeEmail(email)
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.WithField("email", email).Debug("admin account already exists")
		return nil
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	admin := &entity.User{
		FirstName:    "Admin",
		LastName:     "User",
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		IsActive:     true,
		Timezone:     "UTC",
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	logger.WithField("email", email).Info("admin account seeded")
	return nil
}
