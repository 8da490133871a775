package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneedx/kneedx/internal/domain/patient"
	"github.com/kneedx/kneedx/internal/platform/httperr"
	"github.com/kneedx/kneedx/pkg/pagination"
)

type mockAppointmentRepo struct {
	byID map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{byID: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.byID {
		if a.DoctorID == doctorID {
			cp := *a
			out = append(out, &cp)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockAppointmentRepo) CountByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	var total int
	for _, a := range m.byID {
		if a.DoctorID == doctorID {
			total++
		}
	}
	return total, nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type mockPatients struct {
	byCode  map[string]*patient.Patient
	created int
}

func newMockPatients() *mockPatients {
	return &mockPatients{byCode: make(map[string]*patient.Patient)}
}

func (m *mockPatients) FindByCode(_ context.Context, code string) (*patient.Patient, error) {
	p, ok := m.byCode[code]
	if !ok {
		return nil, httperr.New(httperr.NotFound, "patient not found")
	}
	return p, nil
}

func (m *mockPatients) Create(_ context.Context, in patient.CreateInput) (*patient.Patient, error) {
	m.created++
	p := &patient.Patient{
		ID:            uuid.New(),
		Name:          in.Name,
		Age:           in.Age,
		Sex:           in.Sex,
		DoctorID:      in.DoctorID,
		KneeCondition: in.KneeCondition,
		PatientCode:   "NEW204",
	}
	m.byCode[p.PatientCode] = p
	return p, nil
}

func passTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newAppointmentService() (*Service, *mockAppointmentRepo, *mockPatients) {
	appointments := newMockAppointmentRepo()
	patients := newMockPatients()
	return NewService(appointments, patients, passTx, zerolog.Nop()), appointments, patients
}

func TestCreateAttachesToExistingPatient(t *testing.T) {
	service, _, patients := newAppointmentService()
	doctorID := uuid.New()
	existing := &patient.Patient{
		ID: uuid.New(), Name: "A Patient", Age: 40, DoctorID: doctorID, PatientCode: "ABC204",
	}
	patients.byCode["ABC204"] = existing

	a, err := service.Create(context.Background(), CreateInput{
		PatientCode:     "ABC204",
		DoctorID:        doctorID,
		AppointmentDate: time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.PatientID != existing.ID || a.PatientCode != "ABC204" {
		t.Errorf("appointment = %+v", a)
	}
	if patients.created != 0 {
		t.Errorf("attaching by code must not create a patient, created %d", patients.created)
	}
}

func TestCreateUnknownCodeFails(t *testing.T) {
	service, appointments, _ := newAppointmentService()

	_, err := service.Create(context.Background(), CreateInput{
		PatientCode:     "ZZZ999",
		DoctorID:        uuid.New(),
		AppointmentDate: time.Now(),
	})
	if httperr.KindOf(err) != httperr.NotFound {
		t.Fatalf("kind = %v, want NotFound", httperr.KindOf(err))
	}
	if len(appointments.byID) != 0 {
		t.Error("failed booking must not persist an appointment")
	}
}

func TestCreateWalkInOnboardsOnePatient(t *testing.T) {
	service, _, patients := newAppointmentService()
	doctorID := uuid.New()

	a, err := service.Create(context.Background(), CreateInput{
		DoctorID:        doctorID,
		AppointmentDate: time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC),
		Name:            "New Patient",
		Age:             29,
		Sex:             "female",
		KneeCondition:   "meniscus tear",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if patients.created != 1 {
		t.Fatalf("patients created = %d, want 1", patients.created)
	}
	if a.PatientCode != "NEW204" || a.Name != "New Patient" {
		t.Errorf("appointment = %+v", a)
	}
}

func TestListByDoctorPages(t *testing.T) {
	service, appointments, _ := newAppointmentService()
	doctorID := uuid.New()
	for i := 0; i < 5; i++ {
		if err := appointments.Create(context.Background(), &Appointment{DoctorID: doctorID}); err != nil {
			t.Fatal(err)
		}
	}

	page, total, err := service.ListByDoctor(context.Background(), doctorID, pagination.Params{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("ListByDoctor: %v", err)
	}
	if len(page) != 2 || total != 5 {
		t.Errorf("page = %d total = %d, want 2 and 5", len(page), total)
	}
}

func TestCreateValidation(t *testing.T) {
	service, _, _ := newAppointmentService()

	_, err := service.Create(context.Background(), CreateInput{AppointmentDate: time.Now()})
	if httperr.KindOf(err) != httperr.Validation {
		t.Errorf("missing doctor kind = %v, want Validation", httperr.KindOf(err))
	}

	_, err = service.Create(context.Background(), CreateInput{DoctorID: uuid.New()})
	if httperr.KindOf(err) != httperr.Validation {
		t.Errorf("missing date kind = %v, want Validation", httperr.KindOf(err))
	}
}
