package entity

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationWelcome            NotificationType = "welcome"
	NotificationTwoFactorSetup     NotificationType = "2fa_setup_required"
	NotificationAdminAccessGranted NotificationType = "admin_access_granted"
	NotificationAdminAccessRevoked NotificationType = "admin_access_revoked"
	NotificationAdminAccessExpired NotificationType = "admin_access_expired"
	NotificationGeneral            NotificationType = "general"
)

type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index"`
	Recipient   User      `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`

	SenderID *uuid.UUID `gorm:"type:uuid"`

	Type    NotificationType `gorm:"type:varchar(40);not null"`
	Title   string           `gorm:"type:varchar(200);not null"`
	Message string           `gorm:"type:text;not null"`

	IsRead bool `gorm:"default:false;index"`
	ReadAt *time.Time

	CreatedAt time.Time
}
