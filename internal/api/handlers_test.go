package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robosushie/medintake/internal/models"
	"github.com/robosushie/medintake/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	return &Server{store: st}, st
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decodeAPIResponse(t, rec); resp.Status != "ok" {
		t.Errorf("unexpected status %q", resp.Status)
	}

	rec = httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", rec.Code)
	}
}

func TestWebhookHandlerWithoutTwilioBackend(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.webhookHandler(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when Twilio backend inactive, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.webhookHandler(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}
}

func TestPatientHandler(t *testing.T) {
	s, st := newTestServer(t)
	if _, err := st.UpsertPatient(context.Background(), models.Patient{
		Name: "John Doe", MobileNumber: "+15551234567", Age: 25,
	}); err != nil {
		t.Fatalf("seed patient failed: %v", err)
	}

	rec := httptest.NewRecorder()
	s.patientHandler(rec, httptest.NewRequest(http.MethodGet, "/patients?number=%2B15551234567", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result["name"] != "John Doe" {
		t.Errorf("unexpected patient name %v", result["name"])
	}

	rec = httptest.NewRecorder()
	s.patientHandler(rec, httptest.NewRequest(http.MethodGet, "/patients?number=%2B19990000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown patient, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.patientHandler(rec, httptest.NewRequest(http.MethodGet, "/patients", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without number, got %d", rec.Code)
	}
}

func TestPatientHandlerNormalizesWhatsAppPrefix(t *testing.T) {
	s, st := newTestServer(t)
	if _, err := st.UpsertPatient(context.Background(), models.Patient{
		Name: "John Doe", MobileNumber: "+15551234567",
	}); err != nil {
		t.Fatalf("seed patient failed: %v", err)
	}

	rec := httptest.NewRecorder()
	s.patientHandler(rec, httptest.NewRequest(http.MethodGet, "/patients?number=whatsapp%3A%2B15551234567", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected whatsapp-prefixed number to resolve, got %d", rec.Code)
	}
}

func TestConsultationsHandler(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	patientID, err := st.UpsertPatient(ctx, models.Patient{Name: "John Doe", MobileNumber: "+15551234567"})
	if err != nil {
		t.Fatalf("seed patient failed: %v", err)
	}
	if _, err := st.RecordConsultation(ctx, models.Consultation{PatientID: patientID, Symptoms: "fever"}); err != nil {
		t.Fatalf("seed consultation failed: %v", err)
	}

	rec := httptest.NewRecorder()
	s.consultationsHandler(rec, httptest.NewRequest(http.MethodGet, "/consultations?number=%2B15551234567", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	result, ok := resp.Result.([]interface{})
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if len(result) != 1 {
		t.Errorf("expected 1 consultation, got %d", len(result))
	}

	rec = httptest.NewRecorder()
	s.consultationsHandler(rec, httptest.NewRequest(http.MethodGet, "/consultations?number=%2B19990000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown patient, got %d", rec.Code)
	}
}
