package models

// GeocodeResponse is the response for forward and reverse geocoding.
type GeocodeResponse struct {
	Places   []Place `json:"places"`
	Provider string  `json:"provider"`
}

// Place is one geocoding result.
type Place struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	PlaceName string   `json:"placeName"`
	Center    Point    `json:"center"`
	Kinds     []string `json:"kinds,omitempty"`
	Relevance float64  `json:"relevance,omitempty"`
}
