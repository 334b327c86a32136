// Package store provides storage backends for MedIntake.
//
// It includes PostgreSQL and SQLite backed stores for patients and
// consultations, plus an in-memory store for tests and keyless development.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/robosushie/medintake/internal/models"
)

// ErrPatientNotFound is returned when no patient matches the lookup.
var ErrPatientNotFound = errors.New("patient not found")

// Store is the persistence contract consumed by the intake orchestrator and
// the API read endpoints.
type Store interface {
	// UpsertPatient inserts the patient or, when the mobile number is
	// already known, updates the existing row. Returns the patient ID.
	UpsertPatient(ctx context.Context, p models.Patient) (int64, error)
	// GetPatientByNumber looks a patient up by canonical mobile number.
	GetPatientByNumber(ctx context.Context, mobileNumber string) (*models.Patient, error)
	// RecordConsultation stores one completed consultation. Returns its ID.
	RecordConsultation(ctx context.Context, c models.Consultation) (int64, error)
	// ListConsultations returns all consultations for a patient, newest first.
	ListConsultations(ctx context.Context, patientID int64) ([]models.Consultation, error)
	// Close releases the underlying database resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithPostgresDSN sets a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else (file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// New builds a store from the configured options: Postgres for Postgres
// DSNs, SQLite for file paths, in-memory when no DSN is set.
func New(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return NewInMemoryStore(), nil
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}
