// Package store provides storage backends for MedIntake.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/robosushie/medintake/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// UpsertPatient inserts or updates the patient keyed by mobile number.
func (s *PostgresStore) UpsertPatient(ctx context.Context, p models.Patient) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO patients (name, mobile_number, age, blood_group, allergies, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (mobile_number) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			blood_group = EXCLUDED.blood_group,
			allergies = EXCLUDED.allergies,
			email = EXCLUDED.email
		RETURNING id`,
		p.Name, p.MobileNumber, p.Age, nilIfEmpty(p.BloodGroup), nilIfEmpty(p.Allergies), nilIfEmpty(p.Email),
	).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore UpsertPatient failed", "error", err, "mobile_number", p.MobileNumber)
		return 0, fmt.Errorf("failed to upsert patient %s: %w", p.MobileNumber, err)
	}
	slog.Debug("PostgresStore UpsertPatient succeeded", "patient_id", id, "mobile_number", p.MobileNumber)
	return id, nil
}

// GetPatientByNumber looks a patient up by canonical mobile number.
func (s *PostgresStore) GetPatientByNumber(ctx context.Context, mobileNumber string) (*models.Patient, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, mobile_number, age, blood_group, allergies, email, created_at
		FROM patients WHERE mobile_number = $1`, mobileNumber)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		slog.Error("PostgresStore GetPatientByNumber failed", "error", err, "mobile_number", mobileNumber)
		return nil, fmt.Errorf("failed to get patient %s: %w", mobileNumber, err)
	}
	return &p, nil
}

// RecordConsultation stores one completed consultation.
func (s *PostgresStore) RecordConsultation(ctx context.Context, c models.Consultation) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO consultations (patient_id, symptoms, symptoms_duration, patient_summary, doctor_summary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.PatientID, c.Symptoms, nilIfEmpty(c.SymptomsDuration), nilIfEmpty(c.PatientSummary), nilIfEmpty(c.DoctorSummary),
	).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore RecordConsultation failed", "error", err, "patient_id", c.PatientID)
		return 0, fmt.Errorf("failed to insert consultation for patient %d: %w", c.PatientID, err)
	}
	slog.Debug("PostgresStore RecordConsultation succeeded", "consultation_id", id, "patient_id", c.PatientID)
	return id, nil
}

// ListConsultations returns all consultations for a patient, newest first.
func (s *PostgresStore) ListConsultations(ctx context.Context, patientID int64) ([]models.Consultation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, consultation_date, symptoms, symptoms_duration, patient_summary, doctor_summary
		FROM consultations WHERE patient_id = $1
		ORDER BY consultation_date DESC`, patientID)
	if err != nil {
		slog.Error("PostgresStore ListConsultations query failed", "error", err, "patient_id", patientID)
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()
	var consultations []models.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			slog.Error("PostgresStore ListConsultations scan failed", "error", err)
			return nil, err
		}
		consultations = append(consultations, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListConsultations rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate consultation rows: %w", err)
	}
	slog.Debug("PostgresStore ListConsultations succeeded", "patient_id", patientID, "count", len(consultations))
	return consultations, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
