package routestore

import "context"

// Repository defines the interface for saved route persistence.
type Repository interface {
	// Create stores a new saved route.
	Create(ctx context.Context, route *SavedRoute) error

	// GetByUserAndID retrieves a saved route owned by the user.
	// Returns ErrRouteNotFound if the route doesn't exist or belongs to
	// someone else.
	GetByUserAndID(ctx context.Context, userID, routeID string) (*SavedRoute, error)

	// ListByUser retrieves a user's saved routes, newest first.
	ListByUser(ctx context.Context, userID string) ([]*SavedRoute, error)

	// CountByUser returns how many routes the user has saved.
	CountByUser(ctx context.Context, userID string) (int, error)

	// DeleteOldest removes the user's oldest saved route.
	DeleteOldest(ctx context.Context, userID string) error

	// Delete removes a saved route by ID.
	Delete(ctx context.Context, id string) error
}
