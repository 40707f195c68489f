package geo

import (
	"math"
	"time"
)

// Position holds latitude, longitude, altitude and when the fix was taken.
type Position struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Alt       float64   `json:"alt"`
	Timestamp time.Time `json:"ts"`
}

// DistanceMeters calculates the haversine distance between two positions.
func DistanceMeters(a, b Position) float64 {
	const earthRadius = 6371000.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
