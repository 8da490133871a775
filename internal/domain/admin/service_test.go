package admin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kneedx/kneedx/internal/domain/identity"
	"github.com/kneedx/kneedx/internal/domain/ledger"
	"github.com/kneedx/kneedx/internal/platform/httperr"
)

type mockPeopleRepo struct {
	people map[uuid.UUID]*identity.Person
}

func newMockPeopleRepo() *mockPeopleRepo {
	return &mockPeopleRepo{people: make(map[uuid.UUID]*identity.Person)}
}

func (m *mockPeopleRepo) Create(_ context.Context, p *identity.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.people[p.ID] = p
	return nil
}

func (m *mockPeopleRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Person, error) {
	p, ok := m.people[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return p, nil
}

type mockSuperAdminRepo struct {
	byID map[uuid.UUID]*SuperAdmin
}

func newMockSuperAdminRepo() *mockSuperAdminRepo {
	return &mockSuperAdminRepo{byID: make(map[uuid.UUID]*SuperAdmin)}
}

func (m *mockSuperAdminRepo) Create(_ context.Context, sa *SuperAdmin) error {
	if sa.ID == uuid.Nil {
		sa.ID = uuid.New()
	}
	cp := *sa
	m.byID[sa.ID] = &cp
	return nil
}

func (m *mockSuperAdminRepo) GetByID(_ context.Context, id uuid.UUID) (*SuperAdmin, error) {
	sa, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sa
	return &cp, nil
}

func (m *mockSuperAdminRepo) GetByEmail(_ context.Context, email string) (*SuperAdmin, error) {
	for _, sa := range m.byID {
		if sa.Email == email {
			cp := *sa
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockSuperAdminRepo) UpdateMetrics(_ context.Context, id uuid.UUID, metrics ledger.TestMetrics) error {
	sa, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	sa.Metrics = metrics
	return nil
}

type mockHospitalAdminRepo struct {
	byID map[uuid.UUID]*HospitalAdmin
}

func newMockHospitalAdminRepo() *mockHospitalAdminRepo {
	return &mockHospitalAdminRepo{byID: make(map[uuid.UUID]*HospitalAdmin)}
}

func (m *mockHospitalAdminRepo) Create(_ context.Context, ha *HospitalAdmin) error {
	if ha.ID == uuid.Nil {
		ha.ID = uuid.New()
	}
	cp := *ha
	m.byID[ha.ID] = &cp
	return nil
}

func (m *mockHospitalAdminRepo) GetByID(_ context.Context, id uuid.UUID) (*HospitalAdmin, error) {
	ha, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ha
	return &cp, nil
}

func (m *mockHospitalAdminRepo) GetByEmail(_ context.Context, email string) (*HospitalAdmin, error) {
	for _, ha := range m.byID {
		if ha.Email == email {
			cp := *ha
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockHospitalAdminRepo) ListBySuperAdmin(_ context.Context, superAdminID uuid.UUID) ([]*HospitalAdmin, error) {
	var out []*HospitalAdmin
	for _, ha := range m.byID {
		if ha.SuperAdminID == superAdminID {
			cp := *ha
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockHospitalAdminRepo) UpdateMetrics(_ context.Context, id uuid.UUID, metrics ledger.TestMetrics) error {
	ha, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	ha.Metrics = metrics
	return nil
}

type mockDoctorDirectory struct {
	byAdmin map[uuid.UUID][]DoctorSummary
}

func (m *mockDoctorDirectory) ListByHospitalAdmin(_ context.Context, id uuid.UUID) ([]DoctorSummary, error) {
	return m.byAdmin[id], nil
}

func passTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type adminFixture struct {
	service *Service
	people  *mockPeopleRepo
	supers  *mockSuperAdminRepo
	admins  *mockHospitalAdminRepo
	doctors *mockDoctorDirectory
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		people:  newMockPeopleRepo(),
		supers:  newMockSuperAdminRepo(),
		admins:  newMockHospitalAdminRepo(),
		doctors: &mockDoctorDirectory{byAdmin: make(map[uuid.UUID][]DoctorSummary)},
	}
	f.service = NewService(f.people, f.supers, f.admins, f.doctors, passTx, zerolog.Nop())
	return f
}

func (f *adminFixture) seedSuperAdmin(t *testing.T) *SuperAdmin {
	t.Helper()
	sa, err := f.service.CreateSuperAdmin(context.Background(), CreateSuperAdminInput{
		Name: "Root Admin", Email: "root@kneedx.example", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("CreateSuperAdmin: %v", err)
	}
	return sa
}

func TestCreateSuperAdminSeedsLedger(t *testing.T) {
	f := newAdminFixture()
	sa := f.seedSuperAdmin(t)

	want := ledger.TestMetrics{TotalTests: 50, TestsAllocated: 0, TestsDone: 0, TestsRemaining: 50}
	if sa.Metrics != want {
		t.Errorf("metrics = %+v, want %+v", sa.Metrics, want)
	}

	person, err := f.people.GetByID(context.Background(), sa.PersonID)
	if err != nil {
		t.Fatalf("person not created: %v", err)
	}
	if person.Role != identity.RoleSuperAdmin {
		t.Errorf("person role = %q, want %q", person.Role, identity.RoleSuperAdmin)
	}
}

func TestCreateSuperAdminDuplicateEmail(t *testing.T) {
	f := newAdminFixture()
	f.seedSuperAdmin(t)

	_, err := f.service.CreateSuperAdmin(context.Background(), CreateSuperAdminInput{
		Name: "Other", Email: "root@kneedx.example", Password: "secret1",
	})
	if httperr.KindOf(err) != httperr.Conflict {
		t.Errorf("kind = %v, want Conflict", httperr.KindOf(err))
	}
}

func TestAuthenticateSuperAdmin(t *testing.T) {
	f := newAdminFixture()
	f.seedSuperAdmin(t)

	if _, err := f.service.AuthenticateSuperAdmin(context.Background(), "root@kneedx.example", "secret1"); err != nil {
		t.Fatalf("valid credentials rejected: %v", err)
	}
	_, err := f.service.AuthenticateSuperAdmin(context.Background(), "root@kneedx.example", "wrong")
	if httperr.KindOf(err) != httperr.Unauthorized {
		t.Errorf("kind = %v, want Unauthorized", httperr.KindOf(err))
	}
	_, err = f.service.AuthenticateSuperAdmin(context.Background(), "nobody@kneedx.example", "secret1")
	if httperr.KindOf(err) != httperr.Unauthorized {
		t.Errorf("unknown email kind = %v, want Unauthorized", httperr.KindOf(err))
	}
}

func TestCreateHospitalAdminChecksQuota(t *testing.T) {
	f := newAdminFixture()
	sa := f.seedSuperAdmin(t)

	_, err := f.service.CreateHospitalAdmin(context.Background(), sa.ID, CreateHospitalAdminInput{
		Name: "Centre A", Email: "a@kneedx.example", Password: "secret1", TotalTests: 51,
	})
	if httperr.KindOf(err) != httperr.InsufficientQuota {
		t.Fatalf("kind = %v, want InsufficientQuota", httperr.KindOf(err))
	}

	ha, err := f.service.CreateHospitalAdmin(context.Background(), sa.ID, CreateHospitalAdminInput{
		Name: "Centre A", Email: "a@kneedx.example", Password: "secret1", TotalTests: 20,
	})
	if err != nil {
		t.Fatalf("CreateHospitalAdmin: %v", err)
	}
	want := ledger.Seed(20)
	if ha.Metrics != want {
		t.Errorf("hospital admin metrics = %+v, want %+v", ha.Metrics, want)
	}

	// Creation gates on the remaining quota but does not move it.
	after, _ := f.supers.GetByID(context.Background(), sa.ID)
	if after.Metrics != ledger.Seed(50) {
		t.Errorf("super admin metrics changed on creation: %+v", after.Metrics)
	}
}

func TestReallocateNetworkMovesBothLedgers(t *testing.T) {
	f := newAdminFixture()
	sa := f.seedSuperAdmin(t)
	ha, err := f.service.CreateHospitalAdmin(context.Background(), sa.ID, CreateHospitalAdminInput{
		Name: "Centre A", Email: "a@kneedx.example", Password: "secret1", TotalTests: 0,
	})
	if err != nil {
		t.Fatalf("CreateHospitalAdmin: %v", err)
	}

	result, err := f.service.ReallocateNetwork(context.Background(), sa.ID, ha.ID, 10)
	if err != nil {
		t.Fatalf("ReallocateNetwork: %v", err)
	}
	if got := result.SuperAdminMetrics; got.TestsAllocated != 10 || got.TestsRemaining != 40 {
		t.Errorf("super admin metrics = %+v", got)
	}
	if got := result.HospitalAdminMetrics; got.TotalTests != 10 || got.TestsRemaining != 10 {
		t.Errorf("hospital admin metrics = %+v", got)
	}

	// Both sides must have been persisted.
	savedSA, _ := f.supers.GetByID(context.Background(), sa.ID)
	savedHA, _ := f.admins.GetByID(context.Background(), ha.ID)
	if savedSA.Metrics != result.SuperAdminMetrics || savedHA.Metrics != result.HospitalAdminMetrics {
		t.Error("persisted metrics differ from returned metrics")
	}

	// Claw half of it back.
	result, err = f.service.ReallocateNetwork(context.Background(), sa.ID, ha.ID, -5)
	if err != nil {
		t.Fatalf("clawback: %v", err)
	}
	if got := result.HospitalAdminMetrics; got.TotalTests != 5 || got.TestsRemaining != 5 {
		t.Errorf("hospital admin metrics after clawback = %+v", got)
	}
}

func TestReallocateNetworkInsufficientQuota(t *testing.T) {
	f := newAdminFixture()
	sa := f.seedSuperAdmin(t)
	ha, _ := f.service.CreateHospitalAdmin(context.Background(), sa.ID, CreateHospitalAdminInput{
		Name: "Centre A", Email: "a@kneedx.example", Password: "secret1", TotalTests: 0,
	})

	_, err := f.service.ReallocateNetwork(context.Background(), sa.ID, ha.ID, 51)
	if httperr.KindOf(err) != httperr.InsufficientQuota {
		t.Fatalf("kind = %v, want InsufficientQuota", httperr.KindOf(err))
	}

	savedSA, _ := f.supers.GetByID(context.Background(), sa.ID)
	savedHA, _ := f.admins.GetByID(context.Background(), ha.ID)
	if savedSA.Metrics != ledger.Seed(50) || savedHA.Metrics != ledger.Seed(0) {
		t.Error("failed transfer must leave both ledgers untouched")
	}
}

func TestReallocateNetworkForeignCentre(t *testing.T) {
	f := newAdminFixture()
	sa := f.seedSuperAdmin(t)

	foreign := &HospitalAdmin{SuperAdminID: uuid.New(), Email: "b@kneedx.example"}
	if err := f.admins.Create(context.Background(), foreign); err != nil {
		t.Fatal(err)
	}

	_, err := f.service.ReallocateNetwork(context.Background(), sa.ID, foreign.ID, 5)
	if httperr.KindOf(err) != httperr.Forbidden {
		t.Errorf("kind = %v, want Forbidden", httperr.KindOf(err))
	}
}

func TestSuperAdminDashboardPopulatesCentres(t *testing.T) {
	f := newAdminFixture()
	sa := f.seedSuperAdmin(t)
	ha, _ := f.service.CreateHospitalAdmin(context.Background(), sa.ID, CreateHospitalAdminInput{
		Name: "Centre A", Email: "a@kneedx.example", Password: "secret1", TotalTests: 10,
	})
	f.doctors.byAdmin[ha.ID] = []DoctorSummary{{ID: uuid.New(), Name: "Dr. Rao"}}

	dash, err := f.service.GetSuperAdminDashboard(context.Background(), sa.ID)
	if err != nil {
		t.Fatalf("GetSuperAdminDashboard: %v", err)
	}
	if len(dash.HospitalCentres) != 1 {
		t.Fatalf("centres = %d, want 1", len(dash.HospitalCentres))
	}
	centre := dash.HospitalCentres[0]
	if centre.Name != "Centre A" || len(centre.Doctors) != 1 || centre.Doctors[0].Name != "Dr. Rao" {
		t.Errorf("centre not populated: %+v", centre)
	}
}

func TestDashboardReadsDoNotMoveCounters(t *testing.T) {
	f := newAdminFixture()
	sa := f.seedSuperAdmin(t)
	ha, _ := f.service.CreateHospitalAdmin(context.Background(), sa.ID, CreateHospitalAdminInput{
		Name: "Centre A", Email: "a@kneedx.example", Password: "secret1", TotalTests: 10,
	})

	first, err := f.service.GetSuperAdminDashboard(context.Background(), sa.ID)
	if err != nil {
		t.Fatalf("GetSuperAdminDashboard: %v", err)
	}
	second, err := f.service.GetSuperAdminDashboard(context.Background(), sa.ID)
	if err != nil {
		t.Fatalf("GetSuperAdminDashboard again: %v", err)
	}
	if first.Metrics != second.Metrics {
		t.Errorf("super admin counters moved between reads: %+v then %+v", first.Metrics, second.Metrics)
	}
	if first.HospitalCentres[0].Metrics != second.HospitalCentres[0].Metrics {
		t.Errorf("centre counters moved between reads: %+v then %+v",
			first.HospitalCentres[0].Metrics, second.HospitalCentres[0].Metrics)
	}

	haFirst, err := f.service.GetHospitalAdminDashboard(context.Background(), ha.ID)
	if err != nil {
		t.Fatalf("GetHospitalAdminDashboard: %v", err)
	}
	haSecond, err := f.service.GetHospitalAdminDashboard(context.Background(), ha.ID)
	if err != nil {
		t.Fatalf("GetHospitalAdminDashboard again: %v", err)
	}
	if haFirst.Metrics != haSecond.Metrics {
		t.Errorf("hospital admin counters moved between reads: %+v then %+v", haFirst.Metrics, haSecond.Metrics)
	}
}
