package routestore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cellway/cellway/internal/routing"
)

// SQLiteRepository is a SQLite implementation of Repository for
// single-node deployments. Route geometry is stored as an encoded
// polyline string.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite saved route repository and
// ensures the schema exists.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	schema := `
		CREATE TABLE IF NOT EXISTS saved_routes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			origin_name TEXT NOT NULL,
			origin_lat REAL NOT NULL,
			origin_lon REAL NOT NULL,
			destination_name TEXT NOT NULL,
			destination_lat REAL NOT NULL,
			destination_lon REAL NOT NULL,
			kind TEXT NOT NULL,
			geometry TEXT NOT NULL,
			distance_meters REAL NOT NULL,
			duration_seconds REAL NOT NULL,
			signal_score REAL NOT NULL,
			has_alternatives INTEGER NOT NULL DEFAULT 0,
			image_data_url TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_saved_routes_user ON saved_routes (user_id, created_at);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

// Create stores a new saved route.
func (r *SQLiteRepository) Create(ctx context.Context, route *SavedRoute) error {
	query := `
		INSERT INTO saved_routes (
			id, user_id,
			origin_name, origin_lat, origin_lon,
			destination_name, destination_lat, destination_lon,
			kind, geometry,
			distance_meters, duration_seconds, signal_score,
			has_alternatives, image_data_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		route.ID,
		route.UserID,
		route.Origin.Name,
		route.Origin.Point.Lat,
		route.Origin.Point.Lon,
		route.Destination.Name,
		route.Destination.Point.Lat,
		route.Destination.Point.Lon,
		string(route.Kind),
		encodeGeometry(route.Geometry),
		route.DistanceMeters,
		route.DurationSeconds,
		route.SignalScore,
		route.HasAlternatives,
		route.ImageDataURL,
		route.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetByUserAndID retrieves a saved route owned by the user.
func (r *SQLiteRepository) GetByUserAndID(ctx context.Context, userID, routeID string) (*SavedRoute, error) {
	query := `
		SELECT
			id, user_id,
			origin_name, origin_lat, origin_lon,
			destination_name, destination_lat, destination_lon,
			kind, geometry,
			distance_meters, duration_seconds, signal_score,
			has_alternatives, image_data_url, created_at
		FROM saved_routes
		WHERE id = ? AND user_id = ?
	`

	route, err := r.scanRoute(r.db.QueryRowContext(ctx, query, routeID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return route, nil
}

// ListByUser retrieves a user's saved routes, newest first.
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]*SavedRoute, error) {
	query := `
		SELECT
			id, user_id,
			origin_name, origin_lat, origin_lon,
			destination_name, destination_lat, destination_lon,
			kind, geometry,
			distance_meters, duration_seconds, signal_score,
			has_alternatives, image_data_url, created_at
		FROM saved_routes
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*SavedRoute
	for rows.Next() {
		route, err := r.scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// CountByUser returns how many routes the user has saved.
func (r *SQLiteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_routes WHERE user_id = ?`, userID,
	).Scan(&count)
	return count, err
}

// DeleteOldest removes the user's oldest saved route.
func (r *SQLiteRepository) DeleteOldest(ctx context.Context, userID string) error {
	query := `
		DELETE FROM saved_routes
		WHERE id = (
			SELECT id FROM saved_routes
			WHERE user_id = ?
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		)
	`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRouteNotFound
	}
	return nil
}

// Delete removes a saved route by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM saved_routes WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepository) scanRoute(row rowScanner) (*SavedRoute, error) {
	var (
		route     SavedRoute
		kind      string
		geometry  string
		createdAt string
	)

	err := row.Scan(
		&route.ID,
		&route.UserID,
		&route.Origin.Name,
		&route.Origin.Point.Lat,
		&route.Origin.Point.Lon,
		&route.Destination.Name,
		&route.Destination.Point.Lat,
		&route.Destination.Point.Lon,
		&kind,
		&geometry,
		&route.DistanceMeters,
		&route.DurationSeconds,
		&route.SignalScore,
		&route.HasAlternatives,
		&route.ImageDataURL,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	route.Kind = routing.Kind(kind)
	route.Geometry = decodeGeometry(geometry)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		route.CreatedAt = ts
	}
	return &route, nil
}

// Ensure SQLiteRepository implements Repository interface.
var _ Repository = (*SQLiteRepository)(nil)
