package testrecord

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a test record does not exist.
var ErrNotFound = errors.New("test not found")

// Repository persists test records.
type Repository interface {
	Create(ctx context.Context, t *Test) error
	GetByID(ctx context.Context, id uuid.UUID) (*Test, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Test, error)
}

// PatientChecker verifies the referenced patient exists before a test is
// recorded against them.
type PatientChecker interface {
	Exists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// AppointmentCloser removes the appointment a completed test fulfilled.
type AppointmentCloser interface {
	Delete(ctx context.Context, appointmentID uuid.UUID) error
}

// DoctorLedger marks a completed test on the doctor's quota counters.
type DoctorLedger interface {
	RecordCompletion(ctx context.Context, doctorID uuid.UUID) error
}
