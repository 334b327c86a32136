package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/robosushie/medintake/internal/models"
	"github.com/robosushie/medintake/internal/whatsapp"
)

func TestWhatsAppServiceValidateAndCanonicalizeRecipient(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+1 (555) 123-4567", "15551234567", false},
		{"15551234567", "15551234567", false},
		{"", "", true},
		{"abc", "", true},
		{"123", "", true},
	}
	for _, tc := range cases {
		got, err := svc.ValidateAndCanonicalizeRecipient(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("recipient %q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("recipient %q: unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("recipient %q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWhatsAppServiceSendMessageEmitsReceipt(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())

	if err := svc.SendMessage(context.Background(), "+15551234567", "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	select {
	case receipt := <-svc.Receipts():
		if receipt.Status != models.MessageStatusSent {
			t.Errorf("expected sent receipt, got %q", receipt.Status)
		}
		if receipt.To != "15551234567" {
			t.Errorf("expected canonicalized recipient, got %q", receipt.To)
		}
	case <-time.After(time.Second):
		t.Fatal("SendMessage did not emit a receipt")
	}
}

func TestWhatsAppServiceStartStopWithMock(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "+15551234567", "hello"); err != ErrServiceStopped {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
}
