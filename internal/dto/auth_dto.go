package dto

import (
	"time"

	"agencyhub/internal/entity"
)

type RegisterRequest struct {
	FirstName string   `json:"firstName" validate:"required,max=100"`
	LastName  string   `json:"lastName" validate:"required,max=100"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6"`
	Role      string   `json:"role" validate:"required,oneof=client team"`
	Company   string   `json:"company" validate:"omitempty,max=200"`
	Industry  string   `json:"industry" validate:"omitempty,max=100"`
	JobTitle  string   `json:"jobTitle" validate:"omitempty,max=100"`
	Skills    []string `json:"skills" validate:"omitempty,dive,max=60"`
	Phone     string   `json:"phone" validate:"omitempty,max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse covers all three login outcomes; omitempty keeps each
// branch's payload to its own fields.
type LoginResponse struct {
	User          *UserResponse `json:"user,omitempty"`
	AccessToken   string        `json:"accessToken,omitempty"`
	RefreshToken  string        `json:"refreshToken,omitempty"`
	ExpiresIn     int64         `json:"expiresIn,omitempty"`
	DashboardRole string        `json:"dashboardRole,omitempty"`

	Requires2FA   bool   `json:"requires2FA"`
	Needs2FASetup bool   `json:"needs2FASetup,omitempty"`
	SetupToken    string `json:"setupToken,omitempty"`
	PartialToken  string `json:"partialToken,omitempty"`
	UserID        string `json:"userId,omitempty"`
}

type RegisterResponse struct {
	User     UserResponse `json:"user"`
	NextStep string       `json:"nextStep"`
}

type TwoFactorSetupResponse struct {
	QRCode     string `json:"qrCode"`
	ManualKey  string `json:"manualKey"`
	OtpauthURL string `json:"otpauthUrl"`
}

type TwoFactorCodeRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type UpdateProfileRequest struct {
	FirstName string   `json:"firstName" validate:"omitempty,max=100"`
	LastName  string   `json:"lastName" validate:"omitempty,max=100"`
	Phone     string   `json:"phone" validate:"omitempty,max=30"`
	Timezone  string   `json:"timezone" validate:"omitempty,max=64"`
	Company   string   `json:"company" validate:"omitempty,max=200"`
	Industry  string   `json:"industry" validate:"omitempty,max=100"`
	JobTitle  string   `json:"jobTitle" validate:"omitempty,max=100"`
	Skills    []string `json:"skills" validate:"omitempty,dive,max=60"`
}

type MeResponse struct {
	User          UserResponse `json:"user"`
	DashboardRole string       `json:"dashboardRole"`
}

// UserResponse is the safe projection of a user record. Password hash,
// 2FA secret and reset token never appear here.
type UserResponse struct {
	ID                  string     `json:"id"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	FullName            string     `json:"fullName"`
	Email               string     `json:"email"`
	Role                string     `json:"role"`
	TwoFactorEnabled    bool       `json:"twoFactorEnabled"`
	TwoFactorVerified   bool       `json:"twoFactorVerified"`
	IsTemporaryAdmin    bool       `json:"isTemporaryAdmin"`
	TemporaryAdminUntil *time.Time `json:"temporaryAdminUntil,omitempty"`
	PermanentAdmin      bool       `json:"permanentAdmin"`
	Company             *string    `json:"company,omitempty"`
	Industry            *string    `json:"industry,omitempty"`
	JobTitle            *string    `json:"jobTitle,omitempty"`
	Skills              []string   `json:"skills,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	Timezone            string     `json:"timezone"`
	IsActive            bool       `json:"isActive"`
	OnboardingComplete  bool       `json:"onboardingComplete"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	return UserResponse{
		ID:                  user.ID.String(),
		FirstName:           user.FirstName,
		LastName:            user.LastName,
		FullName:            user.FullName(),
		Email:               user.Email,
		Role:                string(user.Role),
		TwoFactorEnabled:    user.TwoFactorEnabled,
		TwoFactorVerified:   user.TwoFactorVerified,
		IsTemporaryAdmin:    user.IsTemporaryAdmin,
		TemporaryAdminUntil: user.TemporaryAdminUntil,
		PermanentAdmin:      user.PermanentAdmin,
		Company:             user.Company,
		Industry:            user.Industry,
		JobTitle:            user.JobTitle,
		Skills:              user.SkillList(),
		Phone:               user.Phone,
		Timezone:            user.Timezone,
		IsActive:            user.IsActive,
		OnboardingComplete:  user.OnboardingComplete,
		LastLoginAt:         user.LastLoginAt,
		CreatedAt:           user.CreatedAt,
		UpdatedAt:           user.UpdatedAt,
	}
}

func UserResponsesFromEntities(users []entity.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, UserResponseFromEntity(&users[i]))
	}
	return responses
}
