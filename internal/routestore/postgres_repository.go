package routestore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cellway/cellway/internal/routing"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Route geometry is stored as an encoded polyline string.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL saved route repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const savedRouteColumns = `
	id, user_id,
	origin_name, origin_lat, origin_lon,
	destination_name, destination_lat, destination_lon,
	kind, geometry,
	distance_meters, duration_seconds, signal_score,
	has_alternatives, image_data_url, created_at
`

// Create stores a new saved route.
func (r *PostgresRepository) Create(ctx context.Context, route *SavedRoute) error {
	query := `
		INSERT INTO saved_routes (` + savedRouteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
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
		route.CreatedAt,
	)
	return err
}

// GetByUserAndID retrieves a saved route owned by the user.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, routeID string) (*SavedRoute, error) {
	query := `
		SELECT ` + savedRouteColumns + `
		FROM saved_routes
		WHERE id = $1 AND user_id = $2
	`

	route, err := scanSavedRoute(r.pool.QueryRow(ctx, query, routeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return route, nil
}

// ListByUser retrieves a user's saved routes, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*SavedRoute, error) {
	query := `
		SELECT ` + savedRouteColumns + `
		FROM saved_routes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*SavedRoute
	for rows.Next() {
		route, err := scanSavedRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// CountByUser returns how many routes the user has saved.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM saved_routes WHERE user_id = $1`, userID,
	).Scan(&count)
	return count, err
}

// DeleteOldest removes the user's oldest saved route.
func (r *PostgresRepository) DeleteOldest(ctx context.Context, userID string) error {
	query := `
		DELETE FROM saved_routes
		WHERE id = (
			SELECT id FROM saved_routes
			WHERE user_id = $1
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		)
	`

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRouteNotFound
	}
	return nil
}

// Delete removes a saved route by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM saved_routes WHERE id = $1`, id)
	return err
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedRoute(row rowScanner) (*SavedRoute, error) {
	var (
		route    SavedRoute
		kind     string
		geometry string
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
		&route.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	route.Kind = routing.Kind(kind)
	route.Geometry = decodeGeometry(geometry)
	return &route, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
