package repository

import (
	"context"
	"database/sql"
	"errors"

	"quakeguard/backend/internal/zone/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a zone repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the zone and sets z.ID on success.
func (r *PostgresRepository) Create(ctx context.Context, z *domain.Zone) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO zones (city) VALUES ($1) RETURNING id`, z.City,
	).Scan(&z.ID)
}

// GetByID returns the zone for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Zone, error) {
	var z domain.Zone
	err := r.db.QueryRowContext(ctx,
		`SELECT id, city FROM zones WHERE id = $1`, id,
	).Scan(&z.ID, &z.City)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &z, nil
}

// GetByCity returns the zone with the given city name, or nil if not found.
func (r *PostgresRepository) GetByCity(ctx context.Context, city string) (*domain.Zone, error) {
	var z domain.Zone
	err := r.db.QueryRowContext(ctx,
		`SELECT id, city FROM zones WHERE city = $1`, city,
	).Scan(&z.ID, &z.City)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &z, nil
}

// List returns zones paginated by limit and offset, ordered by id.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int32) ([]*domain.Zone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, city FROM zones ORDER BY id LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.City); err != nil {
			return nil, err
		}
		out = append(out, &z)
	}
	return out, rows.Err()
}

// Update replaces the zone's mutable fields. Returns false if no row matched.
func (r *PostgresRepository) Update(ctx context.Context, z *domain.Zone) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE zones SET city = $2 WHERE id = $1`, z.ID, z.City,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes the zone. Sensors and their measurements cascade at the
// database level (ON DELETE CASCADE). Returns false if no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// FleetStats summarizes a zone's sensor fleet for monitoring dashboards.
type FleetStats struct {
	ZoneID          int64
	City            string
	TotalSensors    int64
	ActiveSensors   int64
	LastMeasurement sql.NullTime
}

// ListFleetStats returns per-zone sensor counts and the timestamp of the most
// recent measurement in each zone.
func (r *PostgresRepository) ListFleetStats(ctx context.Context) ([]*FleetStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT z.id, z.city,
		       COUNT(DISTINCT m.id),
		       COUNT(DISTINCT m.id) FILTER (WHERE m.active),
		       MAX(mi.created_at)
		FROM zones z
		LEFT JOIN misurators m ON m.zone_id = z.id
		LEFT JOIN misurations mi ON mi.misurator_id = m.id
		GROUP BY z.id, z.city
		ORDER BY z.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*FleetStats
	for rows.Next() {
		var s FleetStats
		if err := rows.Scan(&s.ZoneID, &s.City, &s.TotalSensors, &s.ActiveSensors, &s.LastMeasurement); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
