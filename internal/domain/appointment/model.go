// Package appointment implements the booking step between intake and the
// knee test. An appointment is transient: recording its test deletes it.
package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment carries a snapshot of the intake fields alongside the links
// to the patient and doctor records.
type Appointment struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patientId"`
	DoctorID         uuid.UUID `db:"doctor_id" json:"doctorId"`
	PatientCode      string    `db:"patient_code" json:"patientCode"`
	Name             string    `db:"name" json:"name"`
	Age              int       `db:"age" json:"age"`
	Sex              string    `db:"sex" json:"sex"`
	PhoneNumber      string    `db:"phone_number" json:"phoneNumber"`
	Address          string    `db:"address" json:"address"`
	KneeCondition    string    `db:"knee_condition" json:"kneeCondition"`
	OtherMorbidities string    `db:"other_morbidities" json:"otherMorbidities"`
	RehabDuration    string    `db:"rehab_duration" json:"rehabDuration"`
	AppointmentDate  time.Time `db:"appointment_date" json:"appointmentDate"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
