package service

import (
	"context"
	"sync"
	"time"

	"agencyhub/internal/entity"

	"github.com/google/uuid"
)

// In-memory fakes backing the service tests. They satisfy the repository
// interfaces without a database; stored records are copied on the way in
// and out so tests cannot alias service-held pointers.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
	order []uuid.UUID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]entity.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	found := user
	return &found, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ResetPasswordToken != nil && *user.ResetPasswordToken == tokenHash &&
			user.ResetPasswordExpiry != nil && user.ResetPasswordExpiry.After(now) {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) ClearTemporaryAdmin(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil
	}
	user.IsTemporaryAdmin = false
	user.TemporaryAdminUntil = nil
	r.users[userID] = user
	return nil
}

func (r *memUserRepo) ListExpiredTemporaryAdmins(_ context.Context, now time.Time) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []entity.User
	for _, id := range r.order {
		user := r.users[id]
		if user.Role == entity.RoleTeam && user.IsTemporaryAdmin &&
			user.TemporaryAdminUntil != nil && user.TemporaryAdminUntil.Before(now) {
			expired = append(expired, user)
		}
	}
	return expired, nil
}

func (r *memUserRepo) List(_ context.Context, role *entity.Role, limit, offset int) ([]entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []entity.User
	for _, id := range r.order {
		user := r.users[id]
		if role == nil || user.Role == *role {
			matched = append(matched, user)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

type memNotificationRepo struct {
	mu      sync.Mutex
	created []entity.Notification
}

func (r *memNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	r.created = append(r.created, *n)
	return nil
}

func (r *memNotificationRepo) ListByRecipient(_ context.Context, recipientID uuid.UUID, unreadOnly bool, limit, offset int) ([]entity.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []entity.Notification
	for _, n := range r.created {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	return matched, int64(len(matched)), nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, id uuid.UUID, recipientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.created {
		if r.created[i].ID == id && r.created[i].RecipientID == recipientID {
			r.created[i].IsRead = true
		}
	}
	return nil
}

func (r *memNotificationRepo) MarkAllRead(_ context.Context, recipientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.created {
		if r.created[i].RecipientID == recipientID {
			r.created[i].IsRead = true
		}
	}
	return nil
}

func (r *memNotificationRepo) forRecipient(recipientID uuid.UUID) []entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []entity.Notification
	for _, n := range r.created {
		if n.RecipientID == recipientID {
			matched = append(matched, n)
		}
	}
	return matched
}

type memSecurityLogRepo struct {
	mu      sync.Mutex
	entries []entity.SecurityLog
}

func (r *memSecurityLogRepo) Log(_ context.Context, log *entity.SecurityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *memSecurityLogRepo) actions() []entity.SecurityAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var actions []entity.SecurityAction
	for _, e := range r.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// plainHasher swaps bcrypt out of the hot path so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Verify(hash string, password string) bool {
	return hash == "hashed:"+password
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type recordingEmailSender struct {
	mu    sync.Mutex
	calls []string

	lastResetToken string
}

func (s *recordingEmailSender) SendWelcomeEmail(_ context.Context, _ *entity.User) error {
	s.record("welcome")
	return nil
}

func (s *recordingEmailSender) SendTwoFactorSetupEmail(_ context.Context, _ *entity.User) error {
	s.record("2fa_setup")
	return nil
}

func (s *recordingEmailSender) SendPasswordResetEmail(_ context.Context, _ *entity.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "password_reset")
	s.lastResetToken = token
	return nil
}

func (s *recordingEmailSender) SendAdminAccessEmail(_ context.Context, _ *entity.User, _ bool, _ *time.Time) error {
	s.record("admin_access")
	return nil
}

func (s *recordingEmailSender) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *recordingEmailSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *recordingEmailSender) resetToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResetToken
}
