// Package patient implements patient records, the shareable patient code
// and the code-keyed read endpoints patients use to see their results.
package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/kneedx/kneedx/internal/domain/testrecord"
)

// Patient is a person under the care of one doctor, addressable by their
// patient code.
type Patient struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PersonID         uuid.UUID `db:"person_id" json:"personId"`
	Name             string    `db:"name" json:"name"`
	Age              int       `db:"age" json:"age"`
	Sex              string    `db:"sex" json:"sex"`
	PhoneNumber      string    `db:"phone_number" json:"phoneNumber"`
	Address          string    `db:"address" json:"address"`
	DoctorID         uuid.UUID `db:"doctor_id" json:"doctorId"`
	KneeCondition    string    `db:"knee_condition" json:"kneeCondition"`
	OtherMorbidities string    `db:"other_morbidities" json:"otherMorbidities"`
	RehabDuration    string    `db:"rehab_duration" json:"rehabDuration"`
	MRIImage         string    `db:"mri_image" json:"mriImage"`
	PatientCode      string    `db:"patient_code" json:"patientCode"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// Profile is the code-keyed view returned to a patient, including the name
// of their treating doctor.
type Profile struct {
	Patient
	DoctorName string `json:"doctorName"`
}

// TestView is one completed test in a patient's history.
type TestView struct {
	ID                     uuid.UUID `json:"id"`
	TestDate               time.Time `json:"testDate"`
	LegTested              string    `json:"legTested"`
	MaxRangeOfMotion       float64   `json:"maxRangeOfMotion"`
	MaxLinearDisplacement  float64   `json:"maxLinearDisplacement"`
	MaxAngularDisplacement float64   `json:"maxAngularDisplacement"`
	DoctorName             string    `json:"doctorName"`
}

// Report is the full view of one test a patient pulls up by code.
type Report struct {
	Test        *testrecord.Test `json:"test"`
	PatientName string           `json:"patientName"`
	Age         int              `json:"age"`
	Sex         string           `json:"sex"`
	PatientCode string           `json:"patientCode"`
	DoctorName  string           `json:"doctorName"`
}
