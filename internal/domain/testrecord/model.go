// Package testrecord implements the permanent record of completed
// biomechanical knee tests and the recording workflow doctors drive.
package testrecord

import (
	"time"

	"github.com/google/uuid"
)

// Legs a test can be run on.
const (
	LegLeft  = "Left"
	LegRight = "Right"
)

// ValidLeg reports whether leg is one of the two accepted values.
func ValidLeg(leg string) bool {
	return leg == LegLeft || leg == LegRight
}

// TimeSeriesPoint is one sample of the processed sensor capture.
type TimeSeriesPoint struct {
	Time                float64 `json:"time"`
	RangeOfMotion       float64 `json:"rangeOfMotion"`
	LinearDisplacement  float64 `json:"linearDisplacement"`
	AngularDisplacement float64 `json:"angularDisplacement"`
}

// Test is one completed knee test. Once written it is never updated.
type Test struct {
	ID                     uuid.UUID         `db:"id" json:"id"`
	PatientID              uuid.UUID         `db:"patient_id" json:"patientId"`
	DoctorID               uuid.UUID         `db:"doctor_id" json:"doctorId"`
	PuckID                 string            `db:"puck_id" json:"puckId"`
	LegTested              string            `db:"leg_tested" json:"legTested"`
	LegLength              float64           `db:"leg_length" json:"legLength"`
	TestDate               time.Time         `db:"test_date" json:"testDate"`
	MaxRangeOfMotion       float64           `db:"max_range_of_motion" json:"maxRangeOfMotion"`
	MaxLinearDisplacement  float64           `db:"max_linear_displacement" json:"maxLinearDisplacement"`
	MaxAngularDisplacement float64           `db:"max_angular_displacement" json:"maxAngularDisplacement"`
	TimeSeries             []TimeSeriesPoint `db:"time_series" json:"timeSeries"`
	DoctorNotes            string            `db:"doctor_notes" json:"doctorNotes"`
	FilesProcessed         int               `db:"files_processed" json:"filesProcessed"`
	CreatedAt              time.Time         `db:"created_at" json:"createdAt"`
}
