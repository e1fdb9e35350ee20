package geo

import (
	"github.com/golang/geo/s2"

	"github.com/icalado/geo-snap-pro/internal/track"
)

// EarthRadiusM is Earth's mean radius in meters.
const EarthRadiusM = 6371000.0

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusM
}

// HaversineKm returns the great-circle distance in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineM(lat1, lon1, lat2, lon2) / 1000
}

// PathDistanceM sums the haversine distance over consecutive point pairs.
// O(n), recomputed from scratch per call; session lengths are bounded by
// a single field outing, so this stays cheap.
func PathDistanceM(points []track.TrackPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineM(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return total
}
