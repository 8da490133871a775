package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kneedx/kneedx/internal/domain/ledger"
)

// ErrNotFound is returned when an admin record does not exist.
var ErrNotFound = errors.New("admin not found")

// SuperAdminRepository persists the super admin record.
type SuperAdminRepository interface {
	Create(ctx context.Context, sa *SuperAdmin) error
	GetByID(ctx context.Context, id uuid.UUID) (*SuperAdmin, error)
	GetByEmail(ctx context.Context, email string) (*SuperAdmin, error)
	UpdateMetrics(ctx context.Context, id uuid.UUID, m ledger.TestMetrics) error
}

// HospitalAdminRepository persists hospital admin records.
type HospitalAdminRepository interface {
	Create(ctx context.Context, ha *HospitalAdmin) error
	GetByID(ctx context.Context, id uuid.UUID) (*HospitalAdmin, error)
	GetByEmail(ctx context.Context, email string) (*HospitalAdmin, error)
	ListBySuperAdmin(ctx context.Context, superAdminID uuid.UUID) ([]*HospitalAdmin, error)
	UpdateMetrics(ctx context.Context, id uuid.UUID, m ledger.TestMetrics) error
}

// DoctorDirectory is the view of the doctor domain the dashboards need.
type DoctorDirectory interface {
	ListByHospitalAdmin(ctx context.Context, hospitalAdminID uuid.UUID) ([]DoctorSummary, error)
}
