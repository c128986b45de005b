package models

// MapConfig tells clients how to render the base map.
type MapConfig struct {
	StyleURL    string  `json:"styleUrl"`
	InitialView MapView `json:"initialView"`
}

// MapView is a camera position.
type MapView struct {
	Center Point   `json:"center"`
	Zoom   float64 `json:"zoom"`
}
