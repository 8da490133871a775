package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kneedx/kneedx/internal/domain/ledger"
)

// ErrNotFound is returned when a doctor record does not exist.
var ErrNotFound = errors.New("doctor not found")

// ErrHospitalNotFound is returned by HospitalLedger when the referenced
// hospital admin does not exist.
var ErrHospitalNotFound = errors.New("hospital admin not found")

// Repository persists doctor records.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	ListByHospitalAdmin(ctx context.Context, hospitalAdminID uuid.UUID) ([]*Doctor, error)
	UpdateMetrics(ctx context.Context, id uuid.UUID, m ledger.TestMetrics) error
}

// HospitalLedger is the slice of the admin domain this package needs: the
// grantor's quota counters for allocations.
type HospitalLedger interface {
	Metrics(ctx context.Context, hospitalAdminID uuid.UUID) (ledger.TestMetrics, error)
	SaveMetrics(ctx context.Context, hospitalAdminID uuid.UUID, m ledger.TestMetrics) error
}

// PatientDirectory supplies the doctor's patients with their test history
// for the dashboard. The patient domain owns the records; wiring adapts.
type PatientDirectory interface {
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]PatientOverview, error)
}
