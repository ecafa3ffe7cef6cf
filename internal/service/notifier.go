package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier runs side effects (email, notification fan-out) detached from
// the request path. A failed task is logged and dropped; it never rolls
// back the auth state change that queued it.
type Notifier struct {
	Logger  *logrus.Logger
	Timeout time.Duration

	// Sync runs tasks inline. Used by tests to make side effects
	// observable without synchronization.
	Sync bool
}

func NewNotifier(logger *logrus.Logger) *Notifier {
	return &Notifier{Logger: logger, Timeout: 15 * time.Second}
}

func (n *Notifier) Go(task string, fn func(ctx context.Context) error) {
	if n == nil {
		return
	}
	if n.Sync {
		n.run(task, fn)
		return
	}
	go n.run(task, fn)
}

func (n *Notifier) run(task string, fn func(ctx context.Context) error) {
	timeout := n.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := fn(ctx); err != nil && n.Logger != nil {
		n.Logger.WithError(err).WithField("task", task).Error("background task failed")
	}
}
