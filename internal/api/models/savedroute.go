package models

// SavedRouteEndpoint is a named end of a saved route.
type SavedRouteEndpoint struct {
	Name  string `json:"name"`
	Point Point  `json:"point"`
}

// SavedRouteCreateRequest is the request body for saving a route.
type SavedRouteCreateRequest struct {
	Origin          SavedRouteEndpoint `json:"origin"`
	Destination     SavedRouteEndpoint `json:"destination"`
	Kind            string             `json:"kind"`
	Geometry        []Point            `json:"geometry"`
	DistanceMeters  float64            `json:"distanceMeters"`
	DurationSeconds float64            `json:"durationSeconds"`
	SignalScore     float64            `json:"signalScore"`
	HasAlternatives bool               `json:"hasAlternatives"`
	ImageDataURL    *string            `json:"imageDataUrl,omitempty"`
}

// SavedRoute is a stored route.
type SavedRoute struct {
	ID              string             `json:"id"`
	Origin          SavedRouteEndpoint `json:"origin"`
	Destination     SavedRouteEndpoint `json:"destination"`
	Kind            string             `json:"kind"`
	Geometry        []Point            `json:"geometry"`
	DistanceMeters  float64            `json:"distanceMeters"`
	DurationSeconds float64            `json:"durationSeconds"`
	SignalScore     float64            `json:"signalScore"`
	HasAlternatives bool               `json:"hasAlternatives"`
	ImageDataURL    *string            `json:"imageDataUrl,omitempty"`
	CreatedAt       Timestamp          `json:"createdAt"`
}

// SavedRoutesResponse is the response for listing saved routes.
type SavedRoutesResponse struct {
	Routes []SavedRoute `json:"routes"`
}
