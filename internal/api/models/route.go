package models

// RouteComputeResponse is the snapshot returned by route computation.
type RouteComputeResponse struct {
	Status     string                   `json:"status"`
	Start      *Waypoint                `json:"start,omitempty"`
	End        *Waypoint                `json:"end,omitempty"`
	ActiveKind string                   `json:"activeKind,omitempty"`
	Variants   map[string]*RouteVariant `json:"variants,omitempty"`
	Error      string                   `json:"error,omitempty"`
	UpdatedAt  Timestamp                `json:"updatedAt"`
}

// Waypoint is a labeled endpoint of a route.
type Waypoint struct {
	Point Point  `json:"point"`
	Label string `json:"label,omitempty"`
}

// RouteVariant is one computed route alternative.
type RouteVariant struct {
	Kind            string        `json:"kind"`
	Geometry        []Point       `json:"geometry"`
	DistanceMeters  float64       `json:"distanceMeters"`
	DurationSeconds float64       `json:"durationSeconds"`
	AscendMeters    float64       `json:"ascendMeters,omitempty"`
	DescendMeters   float64       `json:"descendMeters,omitempty"`
	Steps           []RouteStep   `json:"steps,omitempty"`
	Snapped         []Point       `json:"snapped,omitempty"`
	Towers          []RouteTower  `json:"towers,omitempty"`
	SignalScore     float64       `json:"signalScore"`
	Provider        string        `json:"provider"`
	ComputedAt      Timestamp     `json:"computedAt"`
}

// RouteStep is one turn instruction of a variant.
type RouteStep struct {
	Sign            int     `json:"sign"`
	Text            string  `json:"text"`
	StreetName      string  `json:"streetName,omitempty"`
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
	ExitNumber      int     `json:"exitNumber,omitempty"`
	TurnAngle       float64 `json:"turnAngle,omitempty"`
	Anchor          *Point  `json:"anchor,omitempty"`
}

// RouteTower is a cell tower correlated to a route variant.
type RouteTower struct {
	ID                    string   `json:"id"`
	Lat                   float64  `json:"lat"`
	Lon                   float64  `json:"lon"`
	Radio                 string   `json:"radio"`
	RangeMeters           float64  `json:"rangeMeters,omitempty"`
	AverageSignal         *float64 `json:"averageSignal,omitempty"`
	Samples               int      `json:"samples,omitempty"`
	DistanceToRouteMeters float64  `json:"distanceToRouteMeters"`
	PositionAlongRoute    float64  `json:"positionAlongRoute"`
}
