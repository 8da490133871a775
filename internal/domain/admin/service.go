package admin

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

// DefaultSeedTests is the quota a freshly created super admin starts with.
const DefaultSeedTests = 50

// Service implements the administrative-tier business logic.
type Service struct {
	people  identity.Repository
	supers  SuperAdminRepository
	admins  HospitalAdminRepository
	doctors DoctorDirectory
	runTx   db.TxFunc
	logger  zerolog.Logger
}

// NewService creates a new admin service.
func NewService(
	people identity.Repository,
	supers SuperAdminRepository,
	admins HospitalAdminRepository,
	doctors DoctorDirectory,
	runTx db.TxFunc,
	logger zerolog.Logger,
) *Service {
	return &Service{
		people:  people,
		supers:  supers,
		admins:  admins,
		doctors: doctors,
		runTx:   runTx,
		logger:  logger.With().Str("component", "admin-service").Logger(),
	}
}

// CreateSuperAdminInput carries the fields to bootstrap the platform owner.
type CreateSuperAdminInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateSuperAdmin bootstraps the platform owner with the default seed quota.
func (s *Service) CreateSuperAdmin(ctx context.Context, in CreateSuperAdminInput) (*SuperAdmin, error) {
	if err := validateAccountInput(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}
	if _, err := s.supers.GetByEmail(ctx, in.Email); err == nil {
		return nil, httperr.New(httperr.Conflict, "email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	sa := &SuperAdmin{
		Name:           in.Name,
		Email:          strings.ToLower(in.Email),
		PasswordSecret: in.Password,
		Metrics:        ledger.Seed(DefaultSeedTests),
	}
	err := s.runTx(ctx, func(ctx context.Context) error {
		person := &identity.Person{Name: in.Name, Role: identity.RoleSuperAdmin}
		if err := s.people.Create(ctx, person); err != nil {
			return err
		}
		sa.PersonID = person.ID
		return s.supers.Create(ctx, sa)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("super_admin_id", sa.ID.String()).Msg("super admin created")
	return sa, nil
}

// AuthenticateSuperAdmin checks super admin credentials.
func (s *Service) AuthenticateSuperAdmin(ctx context.Context, email, password string) (*SuperAdmin, error) {
	sa, err := s.supers.GetByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.Unauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !secretsEqual(sa.PasswordSecret, password) {
		return nil, httperr.New(httperr.Unauthorized, "invalid credentials")
	}
	return sa, nil
}

// AuthenticateHospitalAdmin checks hospital admin credentials.
func (s *Service) AuthenticateHospitalAdmin(ctx context.Context, email, password string) (*HospitalAdmin, error) {
	ha, err := s.admins.GetByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.Unauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !secretsEqual(ha.PasswordSecret, password) {
		return nil, httperr.New(httperr.Unauthorized, "invalid credentials")
	}
	return ha, nil
}

// GetSuperAdminDashboard returns the super admin's counters with every
// hospital centre and its doctors populated.
func (s *Service) GetSuperAdminDashboard(ctx context.Context, id uuid.UUID) (*SuperAdminDashboard, error) {
	sa, err := s.supers.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.NotFound, "super admin not found")
	}
	if err != nil {
		return nil, err
	}

	admins, err := s.admins.ListBySuperAdmin(ctx, sa.ID)
	if err != nil {
		return nil, err
	}

	centres := make([]CentreOverview, 0, len(admins))
	for _, ha := range admins {
		doctors, err := s.doctors.ListByHospitalAdmin(ctx, ha.ID)
		if err != nil {
			return nil, err
		}
		centres = append(centres, CentreOverview{
			ID:      ha.ID,
			Name:    ha.Name,
			Email:   ha.Email,
			Metrics: ha.Metrics,
			Doctors: doctors,
		})
	}

	return &SuperAdminDashboard{
		ID:              sa.ID,
		Name:            sa.Name,
		Email:           sa.Email,
		Metrics:         sa.Metrics,
		HospitalCentres: centres,
	}, nil
}

// GetHospitalAdminDashboard returns the centre's counters and doctors.
func (s *Service) GetHospitalAdminDashboard(ctx context.Context, id uuid.UUID) (*HospitalAdminDashboard, error) {
	ha, err := s.admins.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.NotFound, "hospital admin not found")
	}
	if err != nil {
		return nil, err
	}

	doctors, err := s.doctors.ListByHospitalAdmin(ctx, ha.ID)
	if err != nil {
		return nil, err
	}

	return &HospitalAdminDashboard{
		ID:      ha.ID,
		Name:    ha.Name,
		Email:   ha.Email,
		Metrics: ha.Metrics,
		Doctors: doctors,
	}, nil
}

// CreateHospitalAdminInput carries the fields to onboard a hospital centre.
type CreateHospitalAdminInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	TotalTests int    `json:"totalTests"`
}

// CreateHospitalAdmin onboards a centre under the given super admin. The
// super admin must have enough tests remaining to cover the requested
// quota; the check gates creation but the super admin's own counters only
// move on explicit reallocation.
func (s *Service) CreateHospitalAdmin(ctx context.Context, superAdminID uuid.UUID, in CreateHospitalAdminInput) (*HospitalAdmin, error) {
	if err := validateAccountInput(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}
	if in.TotalTests < 0 {
		return nil, httperr.New(httperr.Validation, "totalTests must not be negative")
	}

	sa, err := s.supers.GetByID(ctx, superAdminID)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.NotFound, "super admin not found")
	}
	if err != nil {
		return nil, err
	}
	if in.TotalTests > sa.Metrics.TestsRemaining {
		return nil, httperr.Newf(httperr.InsufficientQuota,
			"requested %d tests but only %d remaining", in.TotalTests, sa.Metrics.TestsRemaining)
	}

	if _, err := s.admins.GetByEmail(ctx, strings.ToLower(in.Email)); err == nil {
		return nil, httperr.New(httperr.Conflict, "email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ha := &HospitalAdmin{
		Name:           in.Name,
		Email:          strings.ToLower(in.Email),
		PasswordSecret: in.Password,
		SuperAdminID:   sa.ID,
		Metrics:        ledger.Seed(in.TotalTests),
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		person := &identity.Person{Name: in.Name, Role: identity.RoleHospitalAdmin}
		if err := s.people.Create(ctx, person); err != nil {
			return err
		}
		ha.PersonID = person.ID
		return s.admins.Create(ctx, ha)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("hospital_admin_id", ha.ID.String()).
		Int("total_tests", in.TotalTests).
		Msg("hospital admin created")
	return ha, nil
}

// TransferResult reports both ledgers after a network reallocation.
type TransferResult struct {
	SuperAdminMetrics    ledger.TestMetrics `json:"superAdminMetrics"`
	HospitalAdminMetrics ledger.TestMetrics `json:"hospitalAdminMetrics"`
}

// ReallocateNetwork moves count tests between the super admin and one of
// its hospital centres. count may be negative to claw tests back. Both
// ledgers are written in one transaction.
func (s *Service) ReallocateNetwork(ctx context.Context, superAdminID, hospitalAdminID uuid.UUID, count int) (*TransferResult, error) {
	if count == 0 {
		return nil, httperr.New(httperr.Validation, "count must not be zero")
	}

	var result TransferResult
	err := s.runTx(ctx, func(ctx context.Context) error {
		sa, err := s.supers.GetByID(ctx, superAdminID)
		if errors.Is(err, ErrNotFound) {
			return httperr.New(httperr.NotFound, "super admin not found")
		}
		if err != nil {
			return err
		}
		ha, err := s.admins.GetByID(ctx, hospitalAdminID)
		if errors.Is(err, ErrNotFound) {
			return httperr.New(httperr.NotFound, "hospital admin not found")
		}
		if err != nil {
			return err
		}
		if ha.SuperAdminID != sa.ID {
			return httperr.New(httperr.Forbidden, "hospital admin belongs to another network")
		}

		if err := ledger.ReallocateNetwork(&sa.Metrics, &ha.Metrics, count); err != nil {
			return httperr.Wrap(httperr.InsufficientQuota, "reallocation rejected", err)
		}

		if err := s.supers.UpdateMetrics(ctx, sa.ID, sa.Metrics); err != nil {
			return err
		}
		if err := s.admins.UpdateMetrics(ctx, ha.ID, ha.Metrics); err != nil {
			return err
		}
		result = TransferResult{SuperAdminMetrics: sa.Metrics, HospitalAdminMetrics: ha.Metrics}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("hospital_admin_id", hospitalAdminID.String()).
		Int("count", count).
		Msg("network reallocation applied")
	return &result, nil
}

func validateAccountInput(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return httperr.New(httperr.Validation, "name is required")
	}
	if !strings.Contains(email, "@") {
		return httperr.New(httperr.Validation, "a valid email is required")
	}
	if len(password) < 6 {
		return httperr.New(httperr.Validation, "password must be at least 6 characters")
	}
	return nil
}

func secretsEqual(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
