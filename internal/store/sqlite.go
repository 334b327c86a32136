// Package store provides storage backends for MedIntake.
//
// This file implements the SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/robosushie/medintake/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")
	return &SQLiteStore{db: db}, nil
}

// UpsertPatient inserts or updates the patient keyed by mobile number.
func (s *SQLiteStore) UpsertPatient(ctx context.Context, p models.Patient) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO patients (name, mobile_number, age, blood_group, allergies, email)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (mobile_number) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			blood_group = excluded.blood_group,
			allergies = excluded.allergies,
			email = excluded.email
		RETURNING id`,
		p.Name, p.MobileNumber, p.Age, nilIfEmpty(p.BloodGroup), nilIfEmpty(p.Allergies), nilIfEmpty(p.Email),
	).Scan(&id)
	if err != nil {
		slog.Error("SQLiteStore UpsertPatient failed", "error", err, "mobile_number", p.MobileNumber)
		return 0, fmt.Errorf("failed to upsert patient %s: %w", p.MobileNumber, err)
	}
	slog.Debug("SQLiteStore UpsertPatient succeeded", "patient_id", id, "mobile_number", p.MobileNumber)
	return id, nil
}

// GetPatientByNumber looks a patient up by canonical mobile number.
func (s *SQLiteStore) GetPatientByNumber(ctx context.Context, mobileNumber string) (*models.Patient, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, mobile_number, age, blood_group, allergies, email, created_at
		FROM patients WHERE mobile_number = ?`, mobileNumber)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		slog.Error("SQLiteStore GetPatientByNumber failed", "error", err, "mobile_number", mobileNumber)
		return nil, fmt.Errorf("failed to get patient %s: %w", mobileNumber, err)
	}
	return &p, nil
}

// RecordConsultation stores one completed consultation.
func (s *SQLiteStore) RecordConsultation(ctx context.Context, c models.Consultation) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO consultations (patient_id, symptoms, symptoms_duration, patient_summary, doctor_summary)
		VALUES (?, ?, ?, ?, ?)`,
		c.PatientID, c.Symptoms, nilIfEmpty(c.SymptomsDuration), nilIfEmpty(c.PatientSummary), nilIfEmpty(c.DoctorSummary),
	)
	if err != nil {
		slog.Error("SQLiteStore RecordConsultation failed", "error", err, "patient_id", c.PatientID)
		return 0, fmt.Errorf("failed to insert consultation for patient %d: %w", c.PatientID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read consultation id: %w", err)
	}
	slog.Debug("SQLiteStore RecordConsultation succeeded", "consultation_id", id, "patient_id", c.PatientID)
	return id, nil
}

// ListConsultations returns all consultations for a patient, newest first.
func (s *SQLiteStore) ListConsultations(ctx context.Context, patientID int64) ([]models.Consultation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, consultation_date, symptoms, symptoms_duration, patient_summary, doctor_summary
		FROM consultations WHERE patient_id = ?
		ORDER BY consultation_date DESC`, patientID)
	if err != nil {
		slog.Error("SQLiteStore ListConsultations query failed", "error", err, "patient_id", patientID)
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()
	var consultations []models.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			slog.Error("SQLiteStore ListConsultations scan failed", "error", err)
			return nil, err
		}
		consultations = append(consultations, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListConsultations rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate consultation rows: %w", err)
	}
	slog.Debug("SQLiteStore ListConsultations succeeded", "patient_id", patientID, "count", len(consultations))
	return consultations, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
