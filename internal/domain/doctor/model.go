// Package doctor implements the clinician tier: records created by a
// hospital admin, per-doctor test quotas and the doctor dashboard.
package doctor

import (
	"time"

	"github.com/google/uuid"

	"github.com/kneedx/kneedx/internal/domain/ledger"
)

// Doctor is a clinician attached to one hospital centre.
type Doctor struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	PersonID        uuid.UUID          `db:"person_id" json:"personId"`
	Name            string             `db:"name" json:"name"`
	Email           string             `db:"email" json:"email"`
	PasswordSecret  string             `db:"password_secret" json:"-"`
	Gender          string             `db:"gender" json:"gender"`
	HospitalAdminID uuid.UUID          `db:"hospital_admin_id" json:"hospitalAdminId"`
	Metrics         ledger.TestMetrics `json:"testMetrics"`
	CreatedAt       time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updatedAt"`
}

// PatientTest is one completed test as shown on the doctor dashboard.
type PatientTest struct {
	ID                     uuid.UUID `json:"id"`
	TestDate               time.Time `json:"testDate"`
	LegTested              string    `json:"legTested"`
	MaxRangeOfMotion       float64   `json:"maxRangeOfMotion"`
	MaxLinearDisplacement  float64   `json:"maxLinearDisplacement"`
	MaxAngularDisplacement float64   `json:"maxAngularDisplacement"`
}

// PatientOverview is one of the doctor's patients with their test history.
type PatientOverview struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Age           int           `json:"age"`
	Sex           string        `json:"sex"`
	PatientCode   string        `json:"patientCode"`
	KneeCondition string        `json:"kneeCondition"`
	Tests         []PatientTest `json:"tests"`
}

// Dashboard is the populated view returned to a logged-in doctor.
type Dashboard struct {
	ID       uuid.UUID          `json:"id"`
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Gender   string             `json:"gender"`
	Metrics  ledger.TestMetrics `json:"testMetrics"`
	Patients []PatientOverview  `json:"patients"`
}
