package twiliowhatsapp

import (
	"context"
	"testing"
)

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewClient(); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewClient(WithAccountSID("AC123"), WithAuthToken("token")); err == nil {
		t.Error("expected error without from number")
	}
	if _, err := NewClient(WithAccountSID("AC123"), WithAuthToken("token"), WithFromWhats("whatsapp:+15550001111")); err != nil {
		t.Errorf("expected client with full config, got error %v", err)
	}
}

func TestNewClientEnvFallback(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC456")
	t.Setenv("TWILIO_AUTH_TOKEN", "envtoken")
	t.Setenv("TWILIO_FROM_NUMBER", "whatsapp:+15550001111")

	c, err := NewClient()
	if err != nil {
		t.Fatalf("expected env fallback to succeed, got %v", err)
	}
	if c.fromWhats != "whatsapp:+15550001111" {
		t.Errorf("unexpected from number %q", c.fromWhats)
	}
}

func TestMockClientRecordsMessages(t *testing.T) {
	m := NewMockClient()
	if err := m.SendMessage(context.Background(), "15551234567", "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(m.SentMessages) != 1 {
		t.Fatalf("expected 1 recorded message, got %d", len(m.SentMessages))
	}
	if m.SentMessages[0].To != "15551234567" || m.SentMessages[0].Body != "hello" {
		t.Errorf("unexpected recorded message %+v", m.SentMessages[0])
	}
}
