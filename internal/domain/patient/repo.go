package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kneedx/kneedx/internal/domain/testrecord"
)

// ErrNotFound is returned when a patient record does not exist.
var ErrNotFound = errors.New("patient not found")

// Repository persists patient records.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCode(ctx context.Context, code string) (*Patient, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// DoctorDirectory resolves doctor names for patient-facing views.
type DoctorDirectory interface {
	Name(ctx context.Context, doctorID uuid.UUID) (string, error)
}

// TestDirectory is the slice of the test domain the patient views need.
// ListByPatient returns most recent first. The test repository satisfies
// this directly.
type TestDirectory interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*testrecord.Test, error)
	GetByID(ctx context.Context, id uuid.UUID) (*testrecord.Test, error)
}
