package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agencyhub/internal/entity"

	"github.com/resendlabs/resend-go"
)

var errEmailNotConfigured = errors.New("email sender not configured")

// ResendEmailSender delivers transactional mail through the Resend API.
type ResendEmailSender struct {
	Client     *resend.Client
	From       string
	AppBaseURL string
	ResetPath  string
}

func NewResendEmailSender(apiKey string, from string, appBaseURL string) *ResendEmailSender {
	sender := &ResendEmailSender{
		From:       from,
		AppBaseURL: strings.TrimRight(appBaseURL, "/"),
		ResetPath:  "/reset-password",
	}
	if strings.TrimSpace(apiKey) != "" {
		sender.Client = resend.NewClient(apiKey)
	}
	return sender
}

func (s *ResendEmailSender) SendWelcomeEmail(ctx context.Context, user *entity.User) error {
	subject := "Welcome to AgencyHub"
	html := fmt.Sprintf(
		"<h2>Welcome, %s!</h2><p>Your %s account has been created. Set up two-factor authentication to complete your first login.</p>",
		user.FirstName, user.Role)
	return s.send(ctx, user.Email, subject, html)
}

func (s *ResendEmailSender) SendTwoFactorSetupEmail(ctx context.Context, user *entity.User) error {
	subject := "Set up two-factor authentication"
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Two-factor authentication is required for your account. Log in and scan the QR code with your authenticator app to finish setup.</p>",
		user.FirstName)
	return s.send(ctx, user.Email, subject, html)
}

func (s *ResendEmailSender) SendPasswordResetEmail(ctx context.Context, user *entity.User, token string) error {
	link := token
	if s.AppBaseURL != "" {
		link = fmt.Sprintf("%s%s?token=%s", s.AppBaseURL, s.ResetPath, token)
	}
	subject := "Reset your password"
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Click to reset your password. The link expires in one hour.</p><p><a href=\"%s\">Reset Password</a></p>",
		user.FirstName, link)
	return s.send(ctx, user.Email, subject, html)
}

func (s *ResendEmailSender) SendAdminAccessEmail(ctx context.Context, user *entity.User, isPermanent bool, expiry *time.Time) error {
	subject := "Admin access granted"
	grant := "permanent admin access"
	if !isPermanent && expiry != nil {
		grant = fmt.Sprintf("temporary admin access until %s", expiry.Format("Jan 2, 2006 15:04 MST"))
	}
	html := fmt.Sprintf("<p>Hi %s,</p><p>You have been granted %s.</p>", user.FirstName, grant)
	return s.send(ctx, user.Email, subject, html)
}

func (s *ResendEmailSender) send(ctx context.Context, to string, subject string, html string) error {
	if s.Client == nil {
		return errEmailNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.Client.Emails.Send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	return err
}
