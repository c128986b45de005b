package models

// TowersResponse is the response for a tower bounds query.
type TowersResponse struct {
	Towers    []Tower   `json:"towers"`
	Source    string    `json:"source"`
	FetchedAt Timestamp `json:"fetchedAt"`
}

// Tower is a cell tower.
type Tower struct {
	ID            string   `json:"id"`
	Lat           float64  `json:"lat"`
	Lon           float64  `json:"lon"`
	Radio         string   `json:"radio"`
	RangeMeters   float64  `json:"rangeMeters,omitempty"`
	AverageSignal *float64 `json:"averageSignal,omitempty"`
	Samples       int      `json:"samples,omitempty"`
}
