package store

import (
	"database/sql"
	"fmt"

	"github.com/robosushie/medintake/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPatient scans a patient row in select column order:
// id, name, mobile_number, age, blood_group, allergies, email, created_at.
func scanPatient(row rowScanner) (models.Patient, error) {
	var p models.Patient
	var age sql.NullInt64
	var bloodGroup, allergies, email sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.MobileNumber, &age, &bloodGroup, &allergies, &email, &p.CreatedAt)
	if err != nil {
		return p, fmt.Errorf("scan patient failed: %w", err)
	}
	p.Age = int(age.Int64)
	p.BloodGroup = bloodGroup.String
	p.Allergies = allergies.String
	p.Email = email.String
	return p, nil
}

// scanConsultation scans a consultation row in select column order:
// id, patient_id, consultation_date, symptoms, symptoms_duration,
// patient_summary, doctor_summary.
func scanConsultation(row rowScanner) (models.Consultation, error) {
	var c models.Consultation
	var duration, patientSummary, doctorSummary sql.NullString
	err := row.Scan(&c.ID, &c.PatientID, &c.ConsultationDate, &c.Symptoms, &duration, &patientSummary, &doctorSummary)
	if err != nil {
		return c, fmt.Errorf("scan consultation failed: %w", err)
	}
	c.SymptomsDuration = duration.String
	c.PatientSummary = patientSummary.String
	c.DoctorSummary = doctorSummary.String
	return c, nil
}
