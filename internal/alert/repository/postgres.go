package repository

import (
	"context"
	"database/sql"

	"quakeguard/backend/internal/alert/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an alert repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists the alert. The database assigns the timestamp; it is set on
// a along with the new id.
func (r *PostgresRepository) Insert(ctx context.Context, a *domain.Alert) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO alerts (zone_id, severity, message) VALUES ($1, $2, $3)
		 RETURNING id, timestamp`,
		a.ZoneID, a.Severity, a.Message,
	).Scan(&a.ID, &a.Timestamp)
}

// ListByZone returns the most recent alerts for the zone, newest first.
func (r *PostgresRepository) ListByZone(ctx context.Context, zoneID int64, limit int32) ([]*domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, zone_id, timestamp, severity, COALESCE(message, '')
		 FROM alerts WHERE zone_id = $1
		 ORDER BY timestamp DESC LIMIT $2`, zoneID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.ZoneID, &a.Timestamp, &a.Severity, &a.Message); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
