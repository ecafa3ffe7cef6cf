package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agencyhub/internal/dto"
	"agencyhub/internal/entity"
	"agencyhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AdminService covers the admin-only operations: privilege grants, user
// listing and activation toggles.
type AdminService struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
	securityLogs  repository.SecurityLogRepository
	emailSender   EmailSender
	notifier      *Notifier
	clock         Clock
}

func NewAdminService(
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	securityLogs repository.SecurityLogRepository,
	emailSender EmailSender,
	notifier *Notifier,
	clock Clock,
) *AdminService {
	return &AdminService{
		users:         users,
		notifications: notifications,
		securityLogs:  securityLogs,
		emailSender:   emailSender,
		notifier:      notifier,
		clock:         clock,
	}
}

// GrantAdminAccess elevates a team member. A permanent grant clears any
// temporary fields; a temporary grant requires a future expiry and leaves
// permanentAdmin untouched at false. The stored role never changes.
func (s *AdminService) GrantAdminAccess(ctx context.Context, granterID uuid.UUID, input dto.GrantAdminRequest) (*entity.User, error) {
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != entity.RoleTeam {
		return nil, ErrTeamMemberNotFound
	}

	now := s.now()
	if input.IsPermanent {
		user.PermanentAdmin = true
		user.IsTemporaryAdmin = false
		user.TemporaryAdminUntil = nil
	} else {
		if input.ExpiryDate == nil {
			return nil, ErrExpiryDateRequired
		}
		if input.ExpiryDate.Before(now) {
			return nil, ErrExpiryDateInPast
		}
		user.IsTemporaryAdmin = true
		user.TemporaryAdminUntil = input.ExpiryDate
		user.PermanentAdmin = false
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	grantKind := "temporary"
	if input.IsPermanent {
		grantKind = "permanent"
	}
	_ = s.notifications.Create(ctx, &entity.Notification{
		RecipientID: user.ID,
		SenderID:    &granterID,
		Type:        entity.NotificationAdminAccessGranted,
		Title:       "Admin Access Granted",
		Message:     fmt.Sprintf("You've been granted %s admin access.", grantKind),
	})
	s.logSecurity(ctx, &user.ID, entity.AdminGranted, map[string]any{
		"granted_by": granterID.String(),
		"permanent":  input.IsPermanent,
	})

	if s.emailSender != nil {
		target := *user
		isPermanent := input.IsPermanent
		expiry := input.ExpiryDate
		s.notifier.Go("admin_access_email", func(ctx context.Context) error {
			return s.emailSender.SendAdminAccessEmail(ctx, &target, isPermanent, expiry)
		})
	}

	return user, nil
}

// RevokeAdminAccess clears all three privilege fields. Revoking a user
// with no active grant is a successful no-op.
func (s *AdminService) RevokeAdminAccess(ctx context.Context, revokerID uuid.UUID, targetID string) (*entity.User, error) {
	userID, err := uuid.Parse(targetID)
	if err != nil {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != entity.RoleTeam {
		return nil, ErrTeamMemberNotFound
	}

	user.IsTemporaryAdmin = false
	user.TemporaryAdminUntil = nil
	user.PermanentAdmin = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	_ = s.notifications.Create(ctx, &entity.Notification{
		RecipientID: user.ID,
		SenderID:    &revokerID,
		Type:        entity.NotificationAdminAccessRevoked,
		Title:       "Admin Access Revoked",
		Message:     "Your admin access has been revoked. Your dashboard has returned to team view.",
	})
	s.logSecurity(ctx, &user.ID, entity.AdminRevoked, map[string]any{"revoked_by": revokerID.String()})

	return user, nil
}

func (s *AdminService) ListUsers(ctx context.Context, role *entity.Role, page, limit int) ([]entity.User, dto.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	users, total, err := s.users.List(ctx, role, limit, (page-1)*limit)
	if err != nil {
		return nil, dto.Pagination{}, err
	}
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return users, dto.Pagination{Total: total, Page: page, Limit: limit, TotalPages: totalPages}, nil
}

// ToggleUserActive flips account activation. Admin accounts cannot be
// deactivated; deactivation is the only removal path auth ever sees.
func (s *AdminService) ToggleUserActive(ctx context.Context, targetID string) (*entity.User, error) {
	userID, err := uuid.Parse(targetID)
	if err != nil {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Role == entity.RoleAdmin {
		return nil, ErrCannotDeactivateAdmin
	}

	user.IsActive = !user.IsActive
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AdminService) logSecurity(ctx context.Context, userID *uuid.UUID, action entity.SecurityAction, metadata map[string]any) {
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
		UserID:   userID,
		Action:   action,
		Metadata: payload,
	})
}

func (s *AdminService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
