package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robosushie/medintake/internal/models"
)

// InMemoryStore is a simple in-memory store for patients and consultations.
// Used in tests and when no database DSN is configured.
type InMemoryStore struct {
	mu                 sync.Mutex
	patients           map[string]models.Patient // keyed by mobile number
	consultations      []models.Consultation
	nextPatientID      int64
	nextConsultationID int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		patients:           make(map[string]models.Patient),
		nextPatientID:      1,
		nextConsultationID: 1,
	}
}

// UpsertPatient inserts or updates the patient keyed by mobile number.
func (s *InMemoryStore) UpsertPatient(ctx context.Context, p models.Patient) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.patients[p.MobileNumber]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	} else {
		p.ID = s.nextPatientID
		s.nextPatientID++
		p.CreatedAt = time.Now()
	}
	s.patients[p.MobileNumber] = p
	return p.ID, nil
}

// GetPatientByNumber looks a patient up by canonical mobile number.
func (s *InMemoryStore) GetPatientByNumber(ctx context.Context, mobileNumber string) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[mobileNumber]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

// RecordConsultation stores one completed consultation.
func (s *InMemoryStore) RecordConsultation(ctx context.Context, c models.Consultation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextConsultationID
	s.nextConsultationID++
	if c.ConsultationDate.IsZero() {
		c.ConsultationDate = time.Now()
	}
	s.consultations = append(s.consultations, c)
	return c.ID, nil
}

// ListConsultations returns all consultations for a patient, newest first.
func (s *InMemoryStore) ListConsultations(ctx context.Context, patientID int64) ([]models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Consultation
	for _, c := range s.consultations {
		if c.PatientID == patientID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConsultationDate.After(out[j].ConsultationDate) })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
