package routestore

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository
// or SQLiteRepository.
type InMemoryRepository struct {
	mu     sync.RWMutex
	routes map[string]*SavedRoute
}

// NewInMemoryRepository creates a new in-memory saved route repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		routes: make(map[string]*SavedRoute),
	}
}

// Create stores a new saved route.
func (r *InMemoryRepository) Create(_ context.Context, route *SavedRoute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *route
	r.routes[route.ID] = &cpy
	return nil
}

// GetByUserAndID retrieves a saved route owned by the user.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, routeID string) (*SavedRoute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[routeID]
	if !ok || route.UserID != userID {
		return nil, ErrRouteNotFound
	}

	cpy := *route
	return &cpy, nil
}

// ListByUser retrieves a user's saved routes, newest first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]*SavedRoute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var routes []*SavedRoute
	for _, route := range r.routes {
		if route.UserID == userID {
			cpy := *route
			routes = append(routes, &cpy)
		}
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].CreatedAt.Equal(routes[j].CreatedAt) {
			return routes[i].ID > routes[j].ID
		}
		return routes[i].CreatedAt.After(routes[j].CreatedAt)
	})

	return routes, nil
}

// CountByUser returns how many routes the user has saved.
func (r *InMemoryRepository) CountByUser(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, route := range r.routes {
		if route.UserID == userID {
			count++
		}
	}
	return count, nil
}

// DeleteOldest removes the user's oldest saved route.
func (r *InMemoryRepository) DeleteOldest(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var oldest *SavedRoute
	for _, route := range r.routes {
		if route.UserID != userID {
			continue
		}
		if oldest == nil || route.CreatedAt.Before(oldest.CreatedAt) {
			oldest = route
		}
	}

	if oldest == nil {
		return ErrRouteNotFound
	}

	delete(r.routes, oldest.ID)
	return nil
}

// Delete removes a saved route by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.routes, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
