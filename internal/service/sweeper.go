package service

import (
	"context"
	"time"

	"agencyhub/internal/entity"
	"agencyhub/internal/repository"

	"github.com/sirupsen/logrus"
)

// AdminExpirySweeper is the eager half of temporary-admin expiry: a
// recurring job that revokes lapsed grants for users who are not actively
// making requests, so their access state and notifications do not wait for
// their next login. It runs in a single goroutine, so sweeps never
// overlap.
type AdminExpirySweeper struct {
	Users         repository.UserRepository
	Notifications repository.NotificationRepository
	SecurityLogs  repository.SecurityLogRepository
	Logger        *logrus.Logger
	Interval      time.Duration
	Clock         Clock

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewAdminExpirySweeper(
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	securityLogs repository.SecurityLogRepository,
	logger *logrus.Logger,
	interval time.Duration,
) *AdminExpirySweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AdminExpirySweeper{
		Users:         users,
		Notifications: notifications,
		SecurityLogs:  securityLogs,
		Logger:        logger,
		Interval:      interval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut
// down gracefully.
func (s *AdminExpirySweeper) Start() {
	go s.run()
	s.Logger.WithField("interval", s.Interval).Info("admin expiry sweeper started")
}

// Stop blocks until any in-progress sweep finishes.
func (s *AdminExpirySweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("admin expiry sweeper stopped")
}

func (s *AdminExpirySweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup to bound staleness across restarts.
	s.sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// sweep revokes every lapsed temporary grant and records one expiry
// notification per affected user. Revocation is idempotent, so a rerun
// after a partial failure is safe.
func (s *AdminExpirySweeper) sweep(ctx context.Context) {
	now := s.now()
	expired, err := s.Users.ListExpiredTemporaryAdmins(ctx, now)
	if err != nil {
		s.Logger.WithError(err).Error("admin expiry sweep failed to list users")
		return
	}

	for i := range expired {
		user := &expired[i]
		if err := s.Users.ClearTemporaryAdmin(ctx, user.ID); err != nil {
			s.Logger.WithError(err).WithField("user_id", user.ID).Error("failed to revoke expired admin access")
			continue
		}

		if err := s.Notifications.Create(ctx, &entity.Notification{
			RecipientID: user.ID,
			Type:        entity.NotificationAdminAccessExpired,
			Title:       "Temporary Admin Access Expired",
			Message:     "Your temporary admin access has expired. Your dashboard has returned to team view.",
		}); err != nil {
			s.Logger.WithError(err).WithField("user_id", user.ID).Error("failed to record expiry notification")
		}

		if s.SecurityLogs != nil {
			_ = s.SecurityLogs.Log(ctx, &entity.SecurityLog{
				UserID: &user.ID,
				Action: entity.AdminExpired,
			})
		}

		s.Logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   user.Email,
		}).Info("auto-revoked expired admin access")
	}

	if len(expired) > 0 {
		s.Logger.WithField("revoked", len(expired)).Info("admin expiry sweep completed")
	}
}

func (s *AdminExpirySweeper) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}
