package repository

import (
	"context"
	"database/sql"
	"errors"

	"quakeguard/backend/internal/sensor/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a sensor repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the sensor and sets s.ID on success.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Sensor) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO misurators (zone_id, active, public_key, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		s.ZoneID, s.Active, s.PublicKey, nullFloat(s.Latitude), nullFloat(s.Longitude),
	).Scan(&s.ID)
}

// GetByID returns the sensor for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Sensor, error) {
	var (
		s        domain.Sensor
		lat, lon sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, zone_id, active, public_key, latitude, longitude
		 FROM misurators WHERE id = $1`, id,
	).Scan(&s.ID, &s.ZoneID, &s.Active, &s.PublicKey, &lat, &lon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Latitude = ptrFloat(lat)
	s.Longitude = ptrFloat(lon)
	return &s, nil
}

// List returns sensors filtered by active status and/or zone, paginated by
// limit and offset. Nil filters match everything.
func (r *PostgresRepository) List(ctx context.Context, active *bool, zoneID *int64, limit, offset int32) ([]*domain.Sensor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, zone_id, active, public_key, latitude, longitude
		 FROM misurators
		 WHERE ($1::boolean IS NULL OR active = $1)
		   AND ($2::bigint IS NULL OR zone_id = $2)
		 ORDER BY id LIMIT $3 OFFSET $4`,
		nullBool(active), nullInt(zoneID), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSensors(rows)
}

// ListByZone returns all sensors installed in the given zone.
func (r *PostgresRepository) ListByZone(ctx context.Context, zoneID int64) ([]*domain.Sensor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, zone_id, active, public_key, latitude, longitude
		 FROM misurators WHERE zone_id = $1 ORDER BY id`, zoneID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSensors(rows)
}

// Update replaces the sensor's mutable fields. Returns false if no row matched.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.Sensor) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE misurators
		 SET zone_id = $2, active = $3, public_key = $4, latitude = $5, longitude = $6
		 WHERE id = $1`,
		s.ID, s.ZoneID, s.Active, s.PublicKey, nullFloat(s.Latitude), nullFloat(s.Longitude),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetActive flips the sensor's active flag. Returns false if no row matched.
func (r *PostgresRepository) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE misurators SET active = $2 WHERE id = $1`, id, active,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanSensors(rows *sql.Rows) ([]*domain.Sensor, error) {
	var out []*domain.Sensor
	for rows.Next() {
		var (
			s        domain.Sensor
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.ZoneID, &s.Active, &s.PublicKey, &lat, &lon); err != nil {
			return nil, err
		}
		s.Latitude = ptrFloat(lat)
		s.Longitude = ptrFloat(lon)
		out = append(out, &s)
	}
	return out, rows.Err()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func ptrFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
