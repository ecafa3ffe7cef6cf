package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SecurityAction string

const (
	LoginSuccess    SecurityAction = "login_success"
	LoginFailed     SecurityAction = "login_failed"
	OTPFailed       SecurityAction = "otp_failed"
	TwoFactorSetup  SecurityAction = "2fa_enabled"
	PasswordReset   SecurityAction = "password_reset"
	PasswordChanged SecurityAction = "password_changed"
	AdminGranted    SecurityAction = "admin_granted"
	AdminRevoked    SecurityAction = "admin_revoked"
	AdminExpired    SecurityAction = "admin_expired"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(30);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
