package doctor

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneedx/kneedx/internal/domain/identity"
	"github.com/kneedx/kneedx/internal/domain/ledger"
	"github.com/kneedx/kneedx/internal/platform/db"
	"github.com/kneedx/kneedx/internal/platform/httperr"
)

// Service implements the clinician-tier business logic.
type Service struct {
	people    identity.Repository
	doctors   Repository
	hospitals HospitalLedger
	patients  PatientDirectory
	runTx     db.TxFunc
	logger    zerolog.Logger
}

// NewService creates a new doctor service.
func NewService(
	people identity.Repository,
	doctors Repository,
	hospitals HospitalLedger,
	patients PatientDirectory,
	runTx db.TxFunc,
	logger zerolog.Logger,
) *Service {
	return &Service{
		people:    people,
		doctors:   doctors,
		hospitals: hospitals,
		patients:  patients,
		runTx:     runTx,
		logger:    logger.With().Str("component", "doctor-service").Logger(),
	}
}

// CreateInput carries the fields to onboard a doctor under a centre.
type CreateInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

// Create onboards a doctor under the given hospital admin. The doctor's
// ledger starts at zero; tests arrive through explicit allocation.
func (s *Service) Create(ctx context.Context, hospitalAdminID uuid.UUID, in CreateInput) (*Doctor, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, httperr.New(httperr.Validation, "name is required")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, httperr.New(httperr.Validation, "a valid email is required")
	}
	if len(in.Password) < 6 {
		return nil, httperr.New(httperr.Validation, "password must be at least 6 characters")
	}

	if _, err := s.hospitals.Metrics(ctx, hospitalAdminID); err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return nil, httperr.New(httperr.NotFound, "hospital admin not found")
		}
		return nil, err
	}
	if _, err := s.doctors.GetByEmail(ctx, strings.ToLower(in.Email)); err == nil {
		return nil, httperr.New(httperr.Conflict, "email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	d := &Doctor{
		Name:            in.Name,
		Email:           strings.ToLower(in.Email),
		PasswordSecret:  in.Password,
		Gender:          in.Gender,
		HospitalAdminID: hospitalAdminID,
	}
	err := s.runTx(ctx, func(ctx context.Context) error {
		person := &identity.Person{Name: in.Name, Role: identity.RoleDoctor}
		if err := s.people.Create(ctx, person); err != nil {
			return err
		}
		d.PersonID = person.ID
		return s.doctors.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("doctor_id", d.ID.String()).Msg("doctor created")
	return d, nil
}

// Authenticate checks doctor credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Doctor, error) {
	d, err := s.doctors.GetByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.Unauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(d.PasswordSecret), []byte(password)) != 1 {
		return nil, httperr.New(httperr.Unauthorized, "invalid credentials")
	}
	return d, nil
}

// GetDashboard returns the doctor's counters with every patient and their
// test history populated.
func (s *Service) GetDashboard(ctx context.Context, doctorID uuid.UUID) (*Dashboard, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.NotFound, "doctor not found")
	}
	if err != nil {
		return nil, err
	}

	patients, err := s.patients.ListByDoctor(ctx, d.ID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		ID:       d.ID,
		Name:     d.Name,
		Email:    d.Email,
		Gender:   d.Gender,
		Metrics:  d.Metrics,
		Patients: patients,
	}, nil
}

// TransferResult reports both ledgers after an allocation to a doctor.
type TransferResult struct {
	HospitalAdminMetrics ledger.TestMetrics `json:"hospitalAdminMetrics"`
	DoctorMetrics        ledger.TestMetrics `json:"doctorMetrics"`
}

// Allocate moves count tests from the hospital admin's pool to one of its
// doctors. Only strictly positive counts are accepted; both ledgers are
// written in one transaction.
func (s *Service) Allocate(ctx context.Context, hospitalAdminID, doctorID uuid.UUID, count int) (*TransferResult, error) {
	if count <= 0 {
		return nil, httperr.New(httperr.Validation, "count must be positive")
	}

	var result TransferResult
	err := s.runTx(ctx, func(ctx context.Context) error {
		d, err := s.doctors.GetByID(ctx, doctorID)
		if errors.Is(err, ErrNotFound) {
			return httperr.New(httperr.NotFound, "doctor not found")
		}
		if err != nil {
			return err
		}
		if d.HospitalAdminID != hospitalAdminID {
			return httperr.New(httperr.Forbidden, "doctor belongs to another centre")
		}

		adminMetrics, err := s.hospitals.Metrics(ctx, hospitalAdminID)
		if errors.Is(err, ErrHospitalNotFound) {
			return httperr.New(httperr.NotFound, "hospital admin not found")
		}
		if err != nil {
			return err
		}

		if err := ledger.AllocateDoctor(&adminMetrics, &d.Metrics, count); err != nil {
			return httperr.Wrap(httperr.InsufficientQuota, "allocation rejected", err)
		}

		if err := s.hospitals.SaveMetrics(ctx, hospitalAdminID, adminMetrics); err != nil {
			return err
		}
		if err := s.doctors.UpdateMetrics(ctx, d.ID, d.Metrics); err != nil {
			return err
		}
		result = TransferResult{HospitalAdminMetrics: adminMetrics, DoctorMetrics: d.Metrics}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("doctor_id", doctorID.String()).
		Int("count", count).
		Msg("tests allocated to doctor")
	return &result, nil
}

// RecordCompletion marks one completed test on the doctor's ledger. The
// remaining count may go negative; dashboards surface the overrun.
func (s *Service) RecordCompletion(ctx context.Context, doctorID uuid.UUID) error {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return err
	}
	ledger.RecordCompletion(&d.Metrics)
	return s.doctors.UpdateMetrics(ctx, d.ID, d.Metrics)
}
