// Package identity holds the base person record shared by all four tiers.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles a person can hold. The role is fixed at creation.
const (
	RolePatient       = "patient"
	RoleDoctor        = "doctor"
	RoleHospitalAdmin = "hospital_admin"
	RoleSuperAdmin    = "super_admin"
)

// Person is created once per onboarded individual and never changes role.
type Person struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidRole reports whether role is one of the four tiers.
func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleHospitalAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
