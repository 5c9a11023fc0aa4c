package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"quakeguard/backend/internal/measurement/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a measurement repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists a measurement for the sensor. The database assigns the
// creation timestamp; it is returned along with the new id.
func (r *PostgresRepository) Insert(ctx context.Context, value, sensorID int64) (*domain.Measurement, error) {
	m := domain.Measurement{SensorID: sensorID, Value: value}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO misurations (value, misurator_id) VALUES ($1, $2)
		 RETURNING id, created_at`, value, sensorID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID returns the measurement for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Measurement, error) {
	var m domain.Measurement
	err := r.db.QueryRowContext(ctx,
		`SELECT id, misurator_id, value, created_at FROM misurations WHERE id = $1`, id,
	).Scan(&m.ID, &m.SensorID, &m.Value, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// List returns measurements newest first, optionally filtered by sensor and
// creation-time range, paginated by limit and offset. Nil filters match everything.
func (r *PostgresRepository) List(ctx context.Context, sensorID *int64, since, until *time.Time, limit, offset int32) ([]*domain.Measurement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, misurator_id, value, created_at
		 FROM misurations
		 WHERE ($1::bigint IS NULL OR misurator_id = $1)
		   AND ($2::timestamptz IS NULL OR created_at >= $2)
		   AND ($3::timestamptz IS NULL OR created_at <= $3)
		 ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		nullInt(sensorID), nullTime(since), nullTime(until), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Measurement
	for rows.Next() {
		var m domain.Measurement
		if err := rows.Scan(&m.ID, &m.SensorID, &m.Value, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Statistics returns count/average/max/min over all of the sensor's
// measurement values. A sensor with no measurements yields a zero Statistics.
func (r *PostgresRepository) Statistics(ctx context.Context, sensorID int64) (*domain.Statistics, error) {
	var (
		s        domain.Statistics
		avg      sql.NullFloat64
		maxValue sql.NullInt64
		minValue sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(id), AVG(value), MAX(value), MIN(value)
		 FROM misurations WHERE misurator_id = $1`, sensorID,
	).Scan(&s.Count, &avg, &maxValue, &minValue)
	if err != nil {
		return nil, err
	}
	s.Average = avg.Float64
	s.Max = maxValue.Int64
	s.Min = minValue.Int64
	return &s, nil
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
