// Package email delivers care-team notifications through SendGrid.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier sends one notification to a set of recipients. Callers treat
// failures as non-fatal; delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// Opts holds configuration options for the SendGrid notifier.
type Opts struct {
	APIKey      string
	FromAddress string
	FromName    string
}

// Option defines a configuration option for the SendGrid notifier.
type Option func(*Opts)

// WithAPIKey sets the SendGrid API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithFromAddress sets the sender address for notifications.
func WithFromAddress(addr string) Option {
	return func(o *Opts) { o.FromAddress = addr }
}

// WithFromName sets the display name for the sender address.
func WithFromName(name string) Option {
	return func(o *Opts) { o.FromName = name }
}

// SendGridNotifier sends HTML notification emails via the SendGrid API.
type SendGridNotifier struct {
	client      *sendgrid.Client
	fromAddress string
	fromName    string
}

// NewSendGridNotifier creates a notifier, falling back to the
// SENDGRID_API_KEY and EMAIL_FROM environment variables when no options
// are provided.
func NewSendGridNotifier(opts ...Option) (*SendGridNotifier, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("SENDGRID_API_KEY")
	}
	if cfg.FromAddress == "" {
		cfg.FromAddress = os.Getenv("EMAIL_FROM")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY not set")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("sender address not set")
	}
	if cfg.FromName == "" {
		cfg.FromName = "MedIntake"
	}
	return &SendGridNotifier{
		client:      sendgrid.NewSendClient(cfg.APIKey),
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}, nil
}

// Notify sends one HTML email to all recipients.
func (n *SendGridNotifier) Notify(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients provided")
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(n.fromName, n.fromAddress))
	message.Subject = subject
	message.AddContent(mail.NewContent("text/html", htmlBody))

	personalization := mail.NewPersonalization()
	for _, r := range recipients {
		personalization.AddTos(mail.NewEmail("", r))
	}
	message.AddPersonalizations(personalization)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		slog.Error("SendGrid send failed", "error", err, "recipients", len(recipients))
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("SendGrid send rejected", "status_code", resp.StatusCode, "recipients", len(recipients))
		return fmt.Errorf("email send failed with status code %d", resp.StatusCode)
	}
	slog.Info("Notification email sent", "recipients", len(recipients), "subject", subject)
	return nil
}

// DisabledNotifier drops all notifications. Used when email delivery is
// switched off or not configured.
type DisabledNotifier struct{}

// Notify logs and discards the notification.
func (DisabledNotifier) Notify(ctx context.Context, recipients []string, subject, htmlBody string) error {
	slog.Debug("Email notifications disabled, dropping message", "recipients", len(recipients), "subject", subject)
	return nil
}

// MockNotifier records notifications for tests.
type MockNotifier struct {
	Sent []SentEmail
	Err  error
}

// SentEmail captures one recorded notification.
type SentEmail struct {
	Recipients []string
	Subject    string
	HTMLBody   string
}

// Notify records the notification and returns the configured error.
func (m *MockNotifier) Notify(ctx context.Context, recipients []string, subject, htmlBody string) error {
	m.Sent = append(m.Sent, SentEmail{Recipients: recipients, Subject: subject, HTMLBody: htmlBody})
	return m.Err
}
