package domain

import "time"

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UserLocation is a device fix. It is valid for a single branch lookup.
type UserLocation struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Accuracy   float64   `json:"accuracy"`
	CapturedAt time.Time `json:"captured_at"`
}

func (l UserLocation) Point() Point {
	return Point{Lat: l.Lat, Lng: l.Lng}
}

// NavigationTarget is what the map deep-link builder receives.
type NavigationTarget struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

// Credentials are passed explicitly into every collaborator call.
type Credentials struct {
	UserID string
	Token  string
}
