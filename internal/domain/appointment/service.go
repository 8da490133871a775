package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneedx/kneedx/internal/domain/patient"
	"github.com/kneedx/kneedx/internal/platform/db"
	"github.com/kneedx/kneedx/internal/platform/httperr"
	"github.com/kneedx/kneedx/pkg/pagination"
)

// Service implements appointment booking.
type Service struct {
	appointments Repository
	patients     Patients
	runTx        db.TxFunc
	logger       zerolog.Logger
}

// NewService creates a new appointment service.
func NewService(appointments Repository, patients Patients, runTx db.TxFunc, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		runTx:        runTx,
		logger:       logger.With().Str("component", "appointment-service").Logger(),
	}
}

// CreateInput carries the booking form. When PatientCode is set the
// appointment attaches to that existing patient; otherwise the intake
// fields onboard a new one.
type CreateInput struct {
	PatientCode      string    `json:"patientCode,omitempty"`
	DoctorID         uuid.UUID `json:"doctorId"`
	AppointmentDate  time.Time `json:"appointmentDate"`
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	Sex              string    `json:"sex"`
	PhoneNumber      string    `json:"phoneNumber"`
	Address          string    `json:"address"`
	KneeCondition    string    `json:"kneeCondition"`
	OtherMorbidities string    `json:"otherMorbidities"`
	RehabDuration    string    `json:"rehabDuration"`
	MRIImage         string    `json:"mriImage"`
}

// Create books an appointment. A provided patient code must resolve; when
// none is given exactly one new patient is onboarded under the chosen
// doctor and the minted code rides on the appointment.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	if in.DoctorID == uuid.Nil {
		return nil, httperr.New(httperr.Validation, "doctorId is required")
	}
	if in.AppointmentDate.IsZero() {
		return nil, httperr.New(httperr.Validation, "appointmentDate is required")
	}

	var a *Appointment
	err := s.runTx(ctx, func(ctx context.Context) error {
		var p *patient.Patient
		var err error
		if code := strings.TrimSpace(in.PatientCode); code != "" {
			p, err = s.patients.FindByCode(ctx, code)
		} else {
			p, err = s.patients.Create(ctx, patient.CreateInput{
				Name:             in.Name,
				Age:              in.Age,
				Sex:              in.Sex,
				PhoneNumber:      in.PhoneNumber,
				Address:          in.Address,
				DoctorID:         in.DoctorID,
				KneeCondition:    in.KneeCondition,
				OtherMorbidities: in.OtherMorbidities,
				RehabDuration:    in.RehabDuration,
				MRIImage:         in.MRIImage,
			})
		}
		if err != nil {
			return err
		}

		a = &Appointment{
			PatientID:        p.ID,
			DoctorID:         in.DoctorID,
			PatientCode:      p.PatientCode,
			Name:             p.Name,
			Age:              p.Age,
			Sex:              p.Sex,
			PhoneNumber:      p.PhoneNumber,
			Address:          p.Address,
			KneeCondition:    p.KneeCondition,
			OtherMorbidities: p.OtherMorbidities,
			RehabDuration:    p.RehabDuration,
			AppointmentDate:  in.AppointmentDate,
		}
		return s.appointments.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("patient_code", a.PatientCode).
		Msg("appointment booked")
	return a, nil
}

// ListByDoctor returns one page of the doctor's open appointments in date
// order, with the total for paging.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, p pagination.Params) ([]*Appointment, int, error) {
	appointments, err := s.appointments.ListByDoctor(ctx, doctorID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.appointments.CountByDoctor(ctx, doctorID)
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}
