package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kneedx/kneedx/internal/domain/ledger"
	"github.com/kneedx/kneedx/internal/platform/db"
)

// PgRepository is the PostgreSQL implementation of Repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL doctor repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const doctorColumns = `
	id, person_id, name, email, password_secret, gender, hospital_admin_id,
	total_tests, tests_allocated, tests_done, tests_remaining,
	created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID, &d.PersonID, &d.Name, &d.Email, &d.PasswordSecret, &d.Gender, &d.HospitalAdminID,
		&d.Metrics.TotalTests, &d.Metrics.TestsAllocated,
		&d.Metrics.TestsDone, &d.Metrics.TestsRemaining,
		&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan doctor: %w", err)
	}
	return &d, nil
}

func (r *PgRepository) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (
			id, person_id, name, email, password_secret, gender, hospital_admin_id,
			total_tests, tests_allocated, tests_done, tests_remaining,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.PersonID, d.Name, d.Email, d.PasswordSecret, d.Gender, d.HospitalAdminID,
		d.Metrics.TotalTests, d.Metrics.TestsAllocated,
		d.Metrics.TestsDone, d.Metrics.TestsRemaining,
		d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctor WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctor WHERE email = $1`, email)
	return scanDoctor(row)
}

func (r *PgRepository) ListByHospitalAdmin(ctx context.Context, hospitalAdminID uuid.UUID) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorColumns+` FROM doctor
		 WHERE hospital_admin_id = $1 ORDER BY created_at`, hospitalAdminID)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *PgRepository) UpdateMetrics(ctx context.Context, id uuid.UUID, m ledger.TestMetrics) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET
			total_tests = $2, tests_allocated = $3,
			tests_done = $4, tests_remaining = $5,
			updated_at = $6
		WHERE id = $1`,
		id, m.TotalTests, m.TestsAllocated, m.TestsDone, m.TestsRemaining,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update doctor metrics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
