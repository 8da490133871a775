// Package admin implements the two administrative tiers: the platform-wide
// super admin and the per-centre hospital admins it creates.
package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/kneedx/kneedx/internal/domain/ledger"
)

// SuperAdmin is the platform owner. Exactly one is expected per clinic
// network; its ledger is the root of all test allocations.
type SuperAdmin struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	PersonID       uuid.UUID          `db:"person_id" json:"personId"`
	Name           string             `db:"name" json:"name"`
	Email          string             `db:"email" json:"email"`
	PasswordSecret string             `db:"password_secret" json:"-"`
	Metrics        ledger.TestMetrics `json:"testMetrics"`
	CreatedAt      time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updatedAt"`
}

// HospitalAdmin manages one hospital centre: its doctors and the tests the
// super admin has granted it.
type HospitalAdmin struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	PersonID       uuid.UUID          `db:"person_id" json:"personId"`
	Name           string             `db:"name" json:"name"`
	Email          string             `db:"email" json:"email"`
	PasswordSecret string             `db:"password_secret" json:"-"`
	SuperAdminID   uuid.UUID          `db:"super_admin_id" json:"superAdminId"`
	Metrics        ledger.TestMetrics `json:"testMetrics"`
	CreatedAt      time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updatedAt"`
}

// DoctorSummary is the slice of a doctor record the admin dashboards show.
// The doctor domain owns the full record; wiring adapts it to this shape.
type DoctorSummary struct {
	ID      uuid.UUID          `json:"id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Gender  string             `json:"gender"`
	Metrics ledger.TestMetrics `json:"testMetrics"`
}

// CentreOverview is one hospital centre as seen from the super admin
// dashboard: the admin's own counters plus its doctors.
type CentreOverview struct {
	ID      uuid.UUID          `json:"id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Metrics ledger.TestMetrics `json:"testMetrics"`
	Doctors []DoctorSummary    `json:"doctors"`
}

// SuperAdminDashboard is the populated view returned to a logged-in
// super admin.
type SuperAdminDashboard struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Metrics         ledger.TestMetrics `json:"testMetrics"`
	HospitalCentres []CentreOverview   `json:"hospitalCentres"`
}

// HospitalAdminDashboard is the populated view returned to a logged-in
// hospital admin.
type HospitalAdminDashboard struct {
	ID      uuid.UUID          `json:"id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Metrics ledger.TestMetrics `json:"testMetrics"`
	Doctors []DoctorSummary    `json:"doctors"`
}
