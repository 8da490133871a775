package testrecord

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneedx/kneedx/internal/platform/db"
	"github.com/kneedx/kneedx/internal/platform/httperr"
	"github.com/kneedx/kneedx/internal/platform/report"
)

// Reporter produces a processed report from a puck's raw capture.
type Reporter interface {
	Generate(ctx context.Context, puckID, timestamp string) (*report.Result, error)
}

// Service implements the test recording workflow.
type Service struct {
	tests        Repository
	patients     PatientChecker
	appointments AppointmentCloser
	doctors      DoctorLedger
	reporter     Reporter
	runTx        db.TxFunc
	logger       zerolog.Logger
}

// NewService creates a new test record service.
func NewService(
	tests Repository,
	patients PatientChecker,
	appointments AppointmentCloser,
	doctors DoctorLedger,
	reporter Reporter,
	runTx db.TxFunc,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tests:        tests,
		patients:     patients,
		appointments: appointments,
		doctors:      doctors,
		reporter:     reporter,
		runTx:        runTx,
		logger:       logger.With().Str("component", "testrecord-service").Logger(),
	}
}

// GenerateReport runs the external processing pipeline over the capture a
// puck uploaded and returns peaks plus the full curve for review before the
// doctor commits the test.
func (s *Service) GenerateReport(ctx context.Context, puckID, timestamp string) (*report.Result, error) {
	if strings.TrimSpace(puckID) == "" {
		return nil, httperr.New(httperr.Validation, "puckId is required")
	}
	result, err := s.reporter.Generate(ctx, puckID, timestamp)
	if err != nil {
		return nil, httperr.Wrap(httperr.Internal, "report generation failed", err)
	}
	return result, nil
}

// RecordInput carries everything needed to commit a completed test.
type RecordInput struct {
	PatientID              uuid.UUID         `json:"patientId"`
	AppointmentID          *uuid.UUID        `json:"appointmentId,omitempty"`
	PuckID                 string            `json:"puckId"`
	LegTested              string            `json:"legTested"`
	LegLength              float64           `json:"legLength"`
	TestDate               time.Time         `json:"testDate"`
	MaxRangeOfMotion       float64           `json:"maxRangeOfMotion"`
	MaxLinearDisplacement  float64           `json:"maxLinearDisplacement"`
	MaxAngularDisplacement float64           `json:"maxAngularDisplacement"`
	TimeSeries             []TimeSeriesPoint `json:"timeSeries"`
	DoctorNotes            string            `json:"doctorNotes"`
	FilesProcessed         int               `json:"filesProcessed"`
}

// Record writes the test inside a transaction, then applies the follow-up
// effects: closing the fulfilled appointment and bumping the doctor's done
// counter. The follow-ups are best-effort; a failure there is logged but
// never unwinds an already-committed test.
func (s *Service) Record(ctx context.Context, doctorID uuid.UUID, in RecordInput) (*Test, error) {
	if in.PatientID == uuid.Nil {
		return nil, httperr.New(httperr.Validation, "patientId is required")
	}
	if !ValidLeg(in.LegTested) {
		return nil, httperr.Newf(httperr.Validation, "legTested must be %q or %q", LegLeft, LegRight)
	}
	if strings.TrimSpace(in.PuckID) == "" {
		return nil, httperr.New(httperr.Validation, "puckId is required")
	}

	exists, err := s.patients.Exists(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, httperr.New(httperr.NotFound, "patient not found")
	}

	t := &Test{
		PatientID:              in.PatientID,
		DoctorID:               doctorID,
		PuckID:                 in.PuckID,
		LegTested:              in.LegTested,
		LegLength:              in.LegLength,
		TestDate:               in.TestDate,
		MaxRangeOfMotion:       in.MaxRangeOfMotion,
		MaxLinearDisplacement:  in.MaxLinearDisplacement,
		MaxAngularDisplacement: in.MaxAngularDisplacement,
		TimeSeries:             in.TimeSeries,
		DoctorNotes:            in.DoctorNotes,
		FilesProcessed:         in.FilesProcessed,
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		return s.tests.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	if in.AppointmentID != nil {
		if err := s.appointments.Delete(ctx, *in.AppointmentID); err != nil {
			s.logger.Warn().Err(err).
				Str("appointment_id", in.AppointmentID.String()).
				Str("test_id", t.ID.String()).
				Msg("could not close fulfilled appointment")
		}
	}
	if err := s.doctors.RecordCompletion(ctx, doctorID); err != nil {
		s.logger.Warn().Err(err).
			Str("doctor_id", doctorID.String()).
			Str("test_id", t.ID.String()).
			Msg("could not update doctor ledger")
	}

	s.logger.Info().
		Str("test_id", t.ID.String()).
		Str("patient_id", in.PatientID.String()).
		Msg("test recorded")
	return t, nil
}

// GetByID returns one test record.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Test, error) {
	t, err := s.tests.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, httperr.New(httperr.NotFound, "test not found")
	}
	return t, err
}
