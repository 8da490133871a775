package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneedx/kneedx/internal/domain/identity"
	"github.com/kneedx/kneedx/internal/platform/db"
	"github.com/kneedx/kneedx/internal/platform/httperr"
)

// Service implements patient onboarding and the code-keyed read paths.
type Service struct {
	people   identity.Repository
	patients Repository
	doctors  DoctorDirectory
	tests    TestDirectory
	runTx    db.TxFunc
	logger   zerolog.Logger
}

// NewService creates a new patient service.
func NewService(
	people identity.Repository,
	patients Repository,
	doctors DoctorDirectory,
	tests TestDirectory,
	runTx db.TxFunc,
	logger zerolog.Logger,
) *Service {
	return &Service{
		people:   people,
		patients: patients,
		doctors:  doctors,
		tests:    tests,
		runTx:    runTx,
		logger:   logger.With().Str("component", "patient-service").Logger(),
	}
}

// CreateInput carries the demographic and clinical intake fields.
type CreateInput struct {
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	Sex              string    `json:"sex"`
	PhoneNumber      string    `json:"phoneNumber"`
	Address          string    `json:"address"`
	DoctorID         uuid.UUID `json:"doctorId"`
	KneeCondition    string    `json:"kneeCondition"`
	OtherMorbidities string    `json:"otherMorbidities"`
	RehabDuration    string    `json:"rehabDuration"`
	MRIImage         string    `json:"mriImage"`
}

// Create onboards a patient under a doctor, minting a fresh patient code.
// Exactly one person and one patient record come out of it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, httperr.New(httperr.Validation, "name is required")
	}
	if in.Age <= 0 {
		return nil, httperr.New(httperr.Validation, "age must be positive")
	}
	if in.DoctorID == uuid.Nil {
		return nil, httperr.New(httperr.Validation, "doctorId is required")
	}

	if strings.TrimSpace(in.OtherMorbidities) == "" {
		in.OtherMorbidities = "None"
	}

	code, err := GenerateCode(ctx, s.patients)
	if errors.Is(err, ErrCodeSpaceExhausted) {
		return nil, httperr.Wrap(httperr.Conflict, "no free patient code", err)
	}
	if err != nil {
		return nil, err
	}

	p := &Patient{
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
		PatientCode:      code,
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		person := &identity.Person{Name: in.Name, Role: identity.RolePatient}
		if err := s.people.Create(ctx, person); err != nil {
			return err
		}
		p.PersonID = person.ID
		return s.patients.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("patient_id", p.ID.String()).
		Str("patient_code", p.PatientCode).
		Msg("patient created")
	return p, nil
}

// ListByDoctor returns the patients onboarded under the given doctor.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	return s.patients.ListByDoctor(ctx, doctorID)
}

func (s *Service) byCode(ctx context.Context, code string) (*Patient, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !CodePattern.MatchString(code) {
		return nil, httperr.New(httperr.Validation, "malformed patient code")
	}
	p, err := s.patients.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.NotFound, "patient not found")
	}
	return p, err
}

// FindByCode resolves a patient by their code.
func (s *Service) FindByCode(ctx context.Context, code string) (*Patient, error) {
	return s.byCode(ctx, code)
}

// GetProfileByCode returns the patient's own profile, looked up by code.
func (s *Service) GetProfileByCode(ctx context.Context, code string) (*Profile, error) {
	p, err := s.byCode(ctx, code)
	if err != nil {
		return nil, err
	}
	doctorName, err := s.doctors.Name(ctx, p.DoctorID)
	if err != nil {
		return nil, err
	}
	return &Profile{Patient: *p, DoctorName: doctorName}, nil
}

// ListTestsByCode returns the patient's test history, most recent first.
func (s *Service) ListTestsByCode(ctx context.Context, code string) ([]TestView, error) {
	p, err := s.byCode(ctx, code)
	if err != nil {
		return nil, err
	}
	tests, err := s.tests.ListByPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string)
	views := make([]TestView, 0, len(tests))
	for _, t := range tests {
		name, ok := names[t.DoctorID]
		if !ok {
			name, err = s.doctors.Name(ctx, t.DoctorID)
			if err != nil {
				return nil, err
			}
			names[t.DoctorID] = name
		}
		views = append(views, TestView{
			ID:                     t.ID,
			TestDate:               t.TestDate,
			LegTested:              t.LegTested,
			MaxRangeOfMotion:       t.MaxRangeOfMotion,
			MaxLinearDisplacement:  t.MaxLinearDisplacement,
			MaxAngularDisplacement: t.MaxAngularDisplacement,
			DoctorName:             name,
		})
	}
	return views, nil
}

// GetReportByCode returns one full test report. The test must belong to
// the patient the code resolves to.
func (s *Service) GetReportByCode(ctx context.Context, code string, testID uuid.UUID) (*Report, error) {
	p, err := s.byCode(ctx, code)
	if err != nil {
		return nil, err
	}
	t, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		return nil, httperr.New(httperr.NotFound, "test not found")
	}
	if t.PatientID != p.ID {
		return nil, httperr.New(httperr.Forbidden, "test belongs to another patient")
	}

	doctorName, err := s.doctors.Name(ctx, t.DoctorID)
	if err != nil {
		return nil, err
	}
	return &Report{
		Test:        t,
		PatientName: p.Name,
		Age:         p.Age,
		Sex:         p.Sex,
		PatientCode: p.PatientCode,
		DoctorName:  doctorName,
	}, nil
}
