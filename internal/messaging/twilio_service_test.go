package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/robosushie/medintake/internal/models"
	"github.com/robosushie/medintake/internal/twiliowhatsapp"
)

func postWebhookForm(t *testing.T, svc *TwilioService, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	svc.WebhookHandler(rec, req)
	return rec
}

func TestTwilioServiceWebhookEmitsResponse(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+15551234567")
	form.Set("Body", "Hi")
	rec := postWebhookForm(t, svc, form)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	select {
	case resp := <-svc.Responses():
		if resp.From != "whatsapp:+15551234567" {
			t.Errorf("unexpected sender %q", resp.From)
		}
		if resp.Body != "Hi" {
			t.Errorf("unexpected body %q", resp.Body)
		}
	case <-time.After(time.Second):
		t.Fatal("webhook did not emit a response")
	}
}

func TestTwilioServiceWebhookAllowsEmptyBody(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+15551234567")
	form.Set("Body", "")
	rec := postWebhookForm(t, svc, form)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty body, got %d", rec.Code)
	}

	select {
	case resp := <-svc.Responses():
		if resp.Body != "" {
			t.Errorf("expected empty body to pass through, got %q", resp.Body)
		}
	case <-time.After(time.Second):
		t.Fatal("webhook did not emit the empty-body response")
	}
}

func TestTwilioServiceWebhookRejectsMissingSender(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("Body", "Hi")
	rec := postWebhookForm(t, svc, form)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without sender, got %d", rec.Code)
	}
}

func TestTwilioServiceSendMessage(t *testing.T) {
	client := twiliowhatsapp.NewMockClient()
	svc := NewTwilioService(client)

	if err := svc.SendMessage(context.Background(), "+1 (555) 123-4567", "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(client.SentMessages) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(client.SentMessages))
	}
	if client.SentMessages[0].To != "15551234567" {
		t.Errorf("expected canonicalized recipient, got %q", client.SentMessages[0].To)
	}

	select {
	case receipt := <-svc.Receipts():
		if receipt.Status != models.MessageStatusSent {
			t.Errorf("expected sent receipt, got %q", receipt.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("SendMessage did not emit a receipt")
	}
}

func TestTwilioServiceSendMessageInvalidRecipient(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	if err := svc.SendMessage(context.Background(), "abc", "hello"); err == nil {
		t.Error("expected error for recipient without digits")
	}
	if err := svc.SendMessage(context.Background(), "123", "hello"); err == nil {
		t.Error("expected error for too-short recipient")
	}
}

func TestTwilioServiceStop(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// Stop is idempotent.
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "+15551234567", "hello"); err != ErrServiceStopped {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
}
