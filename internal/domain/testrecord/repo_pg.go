package testrecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kneedx/kneedx/internal/platform/db"
)

// PgRepository is the PostgreSQL implementation of Repository. The time
// series is stored as a JSONB column; it is only ever read whole.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL test repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const testColumns = `
	id, patient_id, doctor_id, puck_id, leg_tested, leg_length, test_date,
	max_range_of_motion, max_linear_displacement, max_angular_displacement,
	time_series, doctor_notes, files_processed, created_at`

func scanTest(row pgx.Row) (*Test, error) {
	var t Test
	var series []byte
	err := row.Scan(
		&t.ID, &t.PatientID, &t.DoctorID, &t.PuckID, &t.LegTested, &t.LegLength, &t.TestDate,
		&t.MaxRangeOfMotion, &t.MaxLinearDisplacement, &t.MaxAngularDisplacement,
		&series, &t.DoctorNotes, &t.FilesProcessed, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan test: %w", err)
	}
	if len(series) > 0 {
		if err := json.Unmarshal(series, &t.TimeSeries); err != nil {
			return nil, fmt.Errorf("decode time series: %w", err)
		}
	}
	return &t, nil
}

func (r *PgRepository) Create(ctx context.Context, t *Test) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.TestDate.IsZero() {
		t.TestDate = time.Now().UTC()
	}
	t.CreatedAt = time.Now().UTC()

	series, err := json.Marshal(t.TimeSeries)
	if err != nil {
		return fmt.Errorf("encode time series: %w", err)
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO knee_test (
			id, patient_id, doctor_id, puck_id, leg_tested, leg_length, test_date,
			max_range_of_motion, max_linear_displacement, max_angular_displacement,
			time_series, doctor_notes, files_processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.PatientID, t.DoctorID, t.PuckID, t.LegTested, t.LegLength, t.TestDate,
		t.MaxRangeOfMotion, t.MaxLinearDisplacement, t.MaxAngularDisplacement,
		series, t.DoctorNotes, t.FilesProcessed, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert test: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Test, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+testColumns+` FROM knee_test WHERE id = $1`, id)
	return scanTest(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Test, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+testColumns+` FROM knee_test
		 WHERE patient_id = $1 ORDER BY test_date DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var tests []*Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}
