package testrecord

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneedx/kneedx/internal/platform/httperr"
	"github.com/kneedx/kneedx/internal/platform/report"
)

type mockTestRepo struct {
	byID map[uuid.UUID]*Test
}

func newMockTestRepo() *mockTestRepo {
	return &mockTestRepo{byID: make(map[uuid.UUID]*Test)}
}

func (m *mockTestRepo) Create(_ context.Context, t *Test) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *mockTestRepo) GetByID(_ context.Context, id uuid.UUID) (*Test, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTestRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Test, error) {
	var out []*Test
	for _, t := range m.byID {
		if t.PatientID == patientID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockPatientChecker struct {
	known map[uuid.UUID]bool
}

func (m *mockPatientChecker) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

type mockAppointmentCloser struct {
	deleted []uuid.UUID
	err     error
}

func (m *mockAppointmentCloser) Delete(_ context.Context, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockDoctorLedger struct {
	completions int
	err         error
}

func (m *mockDoctorLedger) RecordCompletion(_ context.Context, _ uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	m.completions++
	return nil
}

type mockReporter struct {
	result *report.Result
	err    error
}

func (m *mockReporter) Generate(_ context.Context, puckID, _ string) (*report.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	r := *m.result
	r.PuckID = puckID
	return &r, nil
}

func passTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordFixture struct {
	service      *Service
	tests        *mockTestRepo
	appointments *mockAppointmentCloser
	doctors      *mockDoctorLedger
	reporter     *mockReporter
	patientID    uuid.UUID
}

func newRecordFixture() *recordFixture {
	f := &recordFixture{
		tests:        newMockTestRepo(),
		appointments: &mockAppointmentCloser{},
		doctors:      &mockDoctorLedger{},
		reporter: &mockReporter{result: &report.Result{
			MaxRangeOfMotion: 130.2, FilesProcessed: 3,
		}},
		patientID: uuid.New(),
	}
	patients := &mockPatientChecker{known: map[uuid.UUID]bool{f.patientID: true}}
	f.service = NewService(f.tests, patients, f.appointments, f.doctors, f.reporter, passTx, zerolog.Nop())
	return f
}

func validInput(patientID uuid.UUID) RecordInput {
	return RecordInput{
		PatientID:        patientID,
		PuckID:           "puck-17",
		LegTested:        LegLeft,
		LegLength:        42.5,
		MaxRangeOfMotion: 128.4,
		TimeSeries:       []TimeSeriesPoint{{Time: 0.1, RangeOfMotion: 10}},
		DoctorNotes:      "post-op week 6",
		FilesProcessed:   3,
	}
}

func TestRecordStoresTestAndAppliesFollowUps(t *testing.T) {
	f := newRecordFixture()
	doctorID := uuid.New()
	appointmentID := uuid.New()

	in := validInput(f.patientID)
	in.AppointmentID = &appointmentID

	rec, err := f.service.Record(context.Background(), doctorID, in)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Error("test id not assigned")
	}
	if rec.DoctorID != doctorID {
		t.Errorf("doctor id = %v, want %v", rec.DoctorID, doctorID)
	}

	stored, err := f.tests.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("test not stored: %v", err)
	}
	if stored.MaxRangeOfMotion != 128.4 || len(stored.TimeSeries) != 1 {
		t.Errorf("stored test = %+v", stored)
	}

	if len(f.appointments.deleted) != 1 || f.appointments.deleted[0] != appointmentID {
		t.Errorf("appointment not closed: %v", f.appointments.deleted)
	}
	if f.doctors.completions != 1 {
		t.Errorf("completions = %d, want 1", f.doctors.completions)
	}
}

func TestRecordSurvivesFollowUpFailures(t *testing.T) {
	f := newRecordFixture()
	f.appointments.err = errors.New("appointment store down")
	f.doctors.err = errors.New("ledger store down")
	appointmentID := uuid.New()

	in := validInput(f.patientID)
	in.AppointmentID = &appointmentID

	rec, err := f.service.Record(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("Record must not fail on follow-up errors: %v", err)
	}
	if _, err := f.tests.GetByID(context.Background(), rec.ID); err != nil {
		t.Errorf("test not stored: %v", err)
	}
}

func TestRecordValidation(t *testing.T) {
	f := newRecordFixture()

	cases := []struct {
		name   string
		mutate func(*RecordInput)
	}{
		{"missing patient", func(in *RecordInput) { in.PatientID = uuid.Nil }},
		{"bad leg", func(in *RecordInput) { in.LegTested = "left" }},
		{"missing puck", func(in *RecordInput) { in.PuckID = " " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(f.patientID)
			tc.mutate(&in)
			_, err := f.service.Record(context.Background(), uuid.New(), in)
			if httperr.KindOf(err) != httperr.Validation {
				t.Errorf("kind = %v, want Validation", httperr.KindOf(err))
			}
		})
	}

	if len(f.tests.byID) != 0 {
		t.Error("rejected input must not be stored")
	}
}

func TestRecordUnknownPatient(t *testing.T) {
	f := newRecordFixture()
	_, err := f.service.Record(context.Background(), uuid.New(), validInput(uuid.New()))
	if httperr.KindOf(err) != httperr.NotFound {
		t.Errorf("kind = %v, want NotFound", httperr.KindOf(err))
	}
}

func TestGenerateReport(t *testing.T) {
	f := newRecordFixture()

	result, err := f.service.GenerateReport(context.Background(), "puck-17", "1700000000")
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if result.PuckID != "puck-17" || result.MaxRangeOfMotion != 130.2 {
		t.Errorf("result = %+v", result)
	}

	_, err = f.service.GenerateReport(context.Background(), "", "1700000000")
	if httperr.KindOf(err) != httperr.Validation {
		t.Errorf("kind = %v, want Validation", httperr.KindOf(err))
	}

	f.reporter.err = errors.New("pipeline unreachable")
	_, err = f.service.GenerateReport(context.Background(), "puck-17", "1700000000")
	if httperr.KindOf(err) != httperr.Internal {
		t.Errorf("kind = %v, want Internal", httperr.KindOf(err))
	}
}
