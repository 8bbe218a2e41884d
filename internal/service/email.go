package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/taskforce/taskmanager/internal/markdown"
)

// Mailer sends the account lifecycle notifications.
type Mailer interface {
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendCancellationEmail(ctx context.Context, email, name string) error
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	appName   string
	logMode   bool
	parser    *markdown.Parser
}

// NewEmailService sends through Resend. In log mode, messages are only logged.
func NewEmailService(apiKey, fromEmail, appName string, logMode bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !logMode {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		appName:   appName,
		logMode:   logMode,
		parser:    markdown.NewParser(),
	}
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return s.send(ctx, "welcome", email, "welcome.md", name)
}

func (s *EmailService) SendCancellationEmail(ctx context.Context, email, name string) error {
	return s.send(ctx, "cancellation", email, "cancellation.md", name)
}

func (s *EmailService) send(ctx context.Context, kind, to, tmpl, name string) error {
	msg, err := renderEmail(s.parser, tmpl, emailData{AppName: s.appName, Name: name})
	if err != nil {
		return err
	}

	if s.logMode {
		slog.Info("email sent (log mode)", "type", kind, "to", to, "subject", msg.Subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	_, err = s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
