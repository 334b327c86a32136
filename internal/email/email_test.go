package email

import (
	"context"
	"errors"
	"testing"
)

func TestNewSendGridNotifierRequiresConfig(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "")
	t.Setenv("EMAIL_FROM", "")

	if _, err := NewSendGridNotifier(); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewSendGridNotifier(WithAPIKey("SG.test")); err == nil {
		t.Error("expected error without sender address")
	}
	if _, err := NewSendGridNotifier(WithAPIKey("SG.test"), WithFromAddress("bot@clinic.example")); err != nil {
		t.Errorf("expected notifier with full config, got error %v", err)
	}
}

func TestNewSendGridNotifierEnvFallback(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "SG.env")
	t.Setenv("EMAIL_FROM", "env@clinic.example")

	n, err := NewSendGridNotifier()
	if err != nil {
		t.Fatalf("expected env fallback to succeed, got %v", err)
	}
	if n.fromAddress != "env@clinic.example" {
		t.Errorf("unexpected from address %q", n.fromAddress)
	}
	if n.fromName != "MedIntake" {
		t.Errorf("unexpected default from name %q", n.fromName)
	}
}

func TestDisabledNotifier(t *testing.T) {
	var n DisabledNotifier
	if err := n.Notify(context.Background(), []string{"doctor@clinic.example"}, "subject", "<p>body</p>"); err != nil {
		t.Errorf("disabled notifier must never fail, got %v", err)
	}
}

func TestMockNotifier(t *testing.T) {
	m := &MockNotifier{}
	if err := m.Notify(context.Background(), []string{"a@clinic.example"}, "s", "b"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(m.Sent) != 1 || m.Sent[0].Subject != "s" {
		t.Errorf("notification not recorded: %+v", m.Sent)
	}

	m.Err = errors.New("boom")
	if err := m.Notify(context.Background(), nil, "s", "b"); err == nil {
		t.Error("expected configured error")
	}
}
