package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
	RoleTeam   Role = "team"
)

// SelfRegisterable reports whether a role may be chosen at registration.
// Admin accounts are only created by the bootstrap seed.
func (r Role) SelfRegisterable() bool {
	return r == RoleClient || r == RoleTeam
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient || r == RoleTeam
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName    string    `gorm:"type:varchar(100);not null"`
	LastName     string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         Role      `gorm:"type:varchar(20);not null"`

	// Two-factor state. TwoFactorSecret is set when setup begins and is
	// never included in any API response.
	TwoFactorSecret   *string `gorm:"type:text"`
	TwoFactorEnabled  bool    `gorm:"default:false"`
	TwoFactorVerified bool    `gorm:"default:false"`

	// Privilege elevation, meaningful only for team members.
	IsTemporaryAdmin    bool `gorm:"default:false"`
	TemporaryAdminUntil *time.Time
	PermanentAdmin      bool `gorm:"default:false"`

	// Client profile.
	Company  *string `gorm:"type:varchar(200)"`
	Industry *string `gorm:"type:varchar(100)"`

	// Team profile.
	JobTitle *string        `gorm:"type:varchar(100)"`
	Skills   datatypes.JSON `gorm:"type:jsonb"`

	Phone    *string `gorm:"type:varchar(30)"`
	Timezone string  `gorm:"type:varchar(64);default:'UTC'"`

	IsActive bool `gorm:"default:true"`

	ResetPasswordToken  *string `gorm:"type:text;index"`
	ResetPasswordExpiry *time.Time

	LastLoginAt        *time.Time
	OnboardingComplete bool `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasAdminAccess is the derived privilege predicate: a stored admin role,
// a permanent grant, or an unexpired temporary grant. It is computed at
// read time and never cached on the record.
func (u *User) HasAdminAccess(now time.Time) bool {
	if u.Role == RoleAdmin {
		return true
	}
	if u.PermanentAdmin {
		return true
	}
	return u.IsTemporaryAdmin && u.TemporaryAdminUntil != nil && u.TemporaryAdminUntil.After(now)
}

// DashboardRole is the role the frontend renders for the user.
func (u *User) DashboardRole(now time.Time) Role {
	if u.HasAdminAccess(now) {
		return RoleAdmin
	}
	return u.Role
}

// TemporaryAdminExpired reports whether a temporary grant has lapsed and
// the flags still need clearing.
func (u *User) TemporaryAdminExpired(now time.Time) bool {
	return u.IsTemporaryAdmin && u.TemporaryAdminUntil != nil && u.TemporaryAdminUntil.Before(now)
}

func (u *User) SkillList() []string {
	if len(u.Skills) == 0 {
		return nil
	}
	var skills []string
	if err := json.Unmarshal(u.Skills, &skills); err != nil {
		return nil
	}
	return skills
}

func (u *User) SetSkills(skills []string) {
	if skills == nil {
		skills = []string{}
	}
	raw, err := json.Marshal(skills)
	if err != nil {
		return
	}
	u.Skills = datatypes.JSON(raw)
}
