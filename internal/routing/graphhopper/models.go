package graphhopper

import "encoding/json"

// ghResponse represents the GraphHopper routing API response.
type ghResponse struct {
	Paths []ghPath `json:"paths"`
	Info  *ghInfo  `json:"info,omitempty"`
}

// ghInfo contains response metadata.
type ghInfo struct {
	Took      int64    `json:"took,omitempty"`
	Copyright []string `json:"copyrights,omitempty"`
}

// ghPath represents a single route alternative.
type ghPath struct {
	Distance float64 `json:"distance"` // meters
	Time     int64   `json:"time"`     // milliseconds
	Ascend   float64 `json:"ascend,omitempty"`
	Descend  float64 `json:"descend,omitempty"`

	// Points and SnappedWaypoints are a GeoJSON LineString when
	// points_encoded=false and a polyline string otherwise, so both stay
	// raw until PointsEncoded is known.
	PointsEncoded    bool            `json:"points_encoded"`
	Points           json.RawMessage `json:"points,omitempty"`
	SnappedWaypoints json.RawMessage `json:"snapped_waypoints,omitempty"`

	BBox         []float64          `json:"bbox,omitempty"`
	Instructions []ghInstruction    `json:"instructions,omitempty"`
	Details      map[string][][]any `json:"details,omitempty"`
}

// ghLineString is the decoded GeoJSON geometry, coordinates in
// [lon, lat] order.
type ghLineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// ghInstruction represents a turn-by-turn instruction.
type ghInstruction struct {
	Distance   float64 `json:"distance"` // meters
	Time       int64   `json:"time"`     // milliseconds
	Sign       int     `json:"sign"`
	Text       string  `json:"text"`
	StreetName string  `json:"street_name,omitempty"`
	Interval   []int   `json:"interval,omitempty"` // [first, last] index into points
	ExitNumber int     `json:"exit_number,omitempty"`
	TurnAngle  float64 `json:"turn_angle,omitempty"`
	Heading    float64 `json:"heading,omitempty"`
}

// ghErrorResponse represents an error envelope from GraphHopper.
type ghErrorResponse struct {
	Message string   `json:"message"`
	Hints   []ghHint `json:"hints,omitempty"`
}

// ghHint carries additional error detail.
type ghHint struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
