package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kneedx/kneedx/internal/domain/patient"
)

// ErrNotFound is returned when an appointment does not exist.
var ErrNotFound = errors.New("appointment not found")

// Repository persists appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, error)
	CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Patients is the slice of the patient domain booking needs: resolve an
// existing patient by code, or onboard a new one. The patient service
// satisfies this directly.
type Patients interface {
	FindByCode(ctx context.Context, code string) (*patient.Patient, error)
	Create(ctx context.Context, in patient.CreateInput) (*patient.Patient, error)
}
