package admin

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

// PgSuperAdminRepository is the PostgreSQL implementation of
// SuperAdminRepository.
type PgSuperAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPgSuperAdminRepository creates a new PostgreSQL super admin repository.
func NewPgSuperAdminRepository(pool *pgxpool.Pool) *PgSuperAdminRepository {
	return &PgSuperAdminRepository{pool: pool}
}

func (r *PgSuperAdminRepository) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *PgSuperAdminRepository) Create(ctx context.Context, sa *SuperAdmin) error {
	if sa.ID == uuid.Nil {
		sa.ID = uuid.New()
	}
	now := time.Now().UTC()
	sa.CreatedAt = now
	sa.UpdatedAt = now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO super_admin (
			id, person_id, name, email, password_secret,
			total_tests, tests_allocated, tests_done, tests_remaining,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sa.ID, sa.PersonID, sa.Name, sa.Email, sa.PasswordSecret,
		sa.Metrics.TotalTests, sa.Metrics.TestsAllocated,
		sa.Metrics.TestsDone, sa.Metrics.TestsRemaining,
		sa.CreatedAt, sa.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert super admin: %w", err)
	}
	return nil
}

const superAdminColumns = `
	id, person_id, name, email, password_secret,
	total_tests, tests_allocated, tests_done, tests_remaining,
	created_at, updated_at`

func scanSuperAdmin(row pgx.Row) (*SuperAdmin, error) {
	var sa SuperAdmin
	err := row.Scan(
		&sa.ID, &sa.PersonID, &sa.Name, &sa.Email, &sa.PasswordSecret,
		&sa.Metrics.TotalTests, &sa.Metrics.TestsAllocated,
		&sa.Metrics.TestsDone, &sa.Metrics.TestsRemaining,
		&sa.CreatedAt, &sa.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan super admin: %w", err)
	}
	return &sa, nil
}

func (r *PgSuperAdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*SuperAdmin, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+superAdminColumns+` FROM super_admin WHERE id = $1`, id)
	return scanSuperAdmin(row)
}

func (r *PgSuperAdminRepository) GetByEmail(ctx context.Context, email string) (*SuperAdmin, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+superAdminColumns+` FROM super_admin WHERE email = $1`, email)
	return scanSuperAdmin(row)
}

func (r *PgSuperAdminRepository) UpdateMetrics(ctx context.Context, id uuid.UUID, m ledger.TestMetrics) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE super_admin SET
			total_tests = $2, tests_allocated = $3,
			tests_done = $4, tests_remaining = $5,
			updated_at = $6
		WHERE id = $1`,
		id, m.TotalTests, m.TestsAllocated, m.TestsDone, m.TestsRemaining,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update super admin metrics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PgHospitalAdminRepository is the PostgreSQL implementation of
// HospitalAdminRepository.
type PgHospitalAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPgHospitalAdminRepository creates a new PostgreSQL hospital admin
// repository.
func NewPgHospitalAdminRepository(pool *pgxpool.Pool) *PgHospitalAdminRepository {
	return &PgHospitalAdminRepository{pool: pool}
}

func (r *PgHospitalAdminRepository) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *PgHospitalAdminRepository) Create(ctx context.Context, ha *HospitalAdmin) error {
	if ha.ID == uuid.Nil {
		ha.ID = uuid.New()
	}
	now := time.Now().UTC()
	ha.CreatedAt = now
	ha.UpdatedAt = now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO hospital_admin (
			id, person_id, name, email, password_secret, super_admin_id,
			total_tests, tests_allocated, tests_done, tests_remaining,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ha.ID, ha.PersonID, ha.Name, ha.Email, ha.PasswordSecret, ha.SuperAdminID,
		ha.Metrics.TotalTests, ha.Metrics.TestsAllocated,
		ha.Metrics.TestsDone, ha.Metrics.TestsRemaining,
		ha.CreatedAt, ha.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert hospital admin: %w", err)
	}
	return nil
}

const hospitalAdminColumns = `
	id, person_id, name, email, password_secret, super_admin_id,
	total_tests, tests_allocated, tests_done, tests_remaining,
	created_at, updated_at`

func scanHospitalAdmin(row pgx.Row) (*HospitalAdmin, error) {
	var ha HospitalAdmin
	err := row.Scan(
		&ha.ID, &ha.PersonID, &ha.Name, &ha.Email, &ha.PasswordSecret, &ha.SuperAdminID,
		&ha.Metrics.TotalTests, &ha.Metrics.TestsAllocated,
		&ha.Metrics.TestsDone, &ha.Metrics.TestsRemaining,
		&ha.CreatedAt, &ha.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan hospital admin: %w", err)
	}
	return &ha, nil
}

func (r *PgHospitalAdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*HospitalAdmin, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+hospitalAdminColumns+` FROM hospital_admin WHERE id = $1`, id)
	return scanHospitalAdmin(row)
}

func (r *PgHospitalAdminRepository) GetByEmail(ctx context.Context, email string) (*HospitalAdmin, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+hospitalAdminColumns+` FROM hospital_admin WHERE email = $1`, email)
	return scanHospitalAdmin(row)
}

func (r *PgHospitalAdminRepository) ListBySuperAdmin(ctx context.Context, superAdminID uuid.UUID) ([]*HospitalAdmin, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+hospitalAdminColumns+` FROM hospital_admin
		 WHERE super_admin_id = $1 ORDER BY created_at`, superAdminID)
	if err != nil {
		return nil, fmt.Errorf("list hospital admins: %w", err)
	}
	defer rows.Close()

	var admins []*HospitalAdmin
	for rows.Next() {
		ha, err := scanHospitalAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, ha)
	}
	return admins, rows.Err()
}

func (r *PgHospitalAdminRepository) UpdateMetrics(ctx context.Context, id uuid.UUID, m ledger.TestMetrics) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE hospital_admin SET
			total_tests = $2, tests_allocated = $3,
			tests_done = $4, tests_remaining = $5,
			updated_at = $6
		WHERE id = $1`,
		id, m.TotalTests, m.TestsAllocated, m.TestsDone, m.TestsRemaining,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update hospital admin metrics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
