package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/robosushie/medintake/internal/intake"
	"github.com/robosushie/medintake/internal/models"
	"github.com/robosushie/medintake/internal/store"
)

// healthHandler reports service liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

// webhookHandler receives inbound Twilio WhatsApp messages. It delegates to
// the Twilio transport, which emits the message into the dispatcher's
// response stream; the reply goes out over the REST API.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		slog.Warn("Server.webhookHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.twilioService == nil {
		slog.Warn("Server.webhookHandler: webhook received but Twilio backend not active")
		writeJSONResponse(w, http.StatusNotFound, models.Error("Twilio backend not active"))
		return
	}
	s.twilioService.WebhookHandler(w, r)
}

// patientHandler returns the patient record for a mobile number.
func (s *Server) patientHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		slog.Warn("Server.patientHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	number := intake.NormalizeSender(r.URL.Query().Get("number"))
	if number == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required parameter: number"))
		return
	}

	patient, err := s.store.GetPatientByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, store.ErrPatientNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Patient not found"))
			return
		}
		slog.Error("Server.patientHandler: failed to load patient", "error", err, "number", number)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load patient"))
		return
	}

	slog.Debug("Server.patientHandler: patient loaded", "number", number, "patient_id", patient.ID)
	writeJSONResponse(w, http.StatusOK, models.Success(patient))
}

// consultationsHandler returns all consultations for a patient's mobile
// number, newest first.
func (s *Server) consultationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		slog.Warn("Server.consultationsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	number := intake.NormalizeSender(r.URL.Query().Get("number"))
	if number == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required parameter: number"))
		return
	}

	patient, err := s.store.GetPatientByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, store.ErrPatientNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Patient not found"))
			return
		}
		slog.Error("Server.consultationsHandler: failed to load patient", "error", err, "number", number)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load patient"))
		return
	}

	consultations, err := s.store.ListConsultations(r.Context(), patient.ID)
	if err != nil {
		slog.Error("Server.consultationsHandler: failed to list consultations", "error", err, "patient_id", patient.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list consultations"))
		return
	}

	slog.Debug("Server.consultationsHandler: consultations listed", "patient_id", patient.ID, "count", len(consultations))
	writeJSONResponse(w, http.StatusOK, models.Success(consultations))
}
