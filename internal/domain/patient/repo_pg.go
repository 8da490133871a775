package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kneedx/kneedx/internal/platform/db"
)

// PgRepository is the PostgreSQL implementation of Repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL patient repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientColumns = `
	id, person_id, name, age, sex, phone_number, address, doctor_id,
	knee_condition, other_morbidities, rehab_duration, mri_image,
	patient_code, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.PersonID, &p.Name, &p.Age, &p.Sex, &p.PhoneNumber, &p.Address, &p.DoctorID,
		&p.KneeCondition, &p.OtherMorbidities, &p.RehabDuration, &p.MRIImage,
		&p.PatientCode, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (
			id, person_id, name, age, sex, phone_number, address, doctor_id,
			knee_condition, other_morbidities, rehab_duration, mri_image,
			patient_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.PersonID, p.Name, p.Age, p.Sex, p.PhoneNumber, p.Address, p.DoctorID,
		p.KneeCondition, p.OtherMorbidities, p.RehabDuration, p.MRIImage,
		p.PatientCode, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetByCode(ctx context.Context, code string) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE patient_code = $1`, code)
	return scanPatient(row)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientColumns+` FROM patient
		 WHERE doctor_id = $1 ORDER BY created_at`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *PgRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE patient_code = $1)`, code).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient code: %w", err)
	}
	return exists, nil
}
